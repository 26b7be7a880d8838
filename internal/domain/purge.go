package domain

import (
	"fmt"
	"time"
)

// maxPurgeMinutes is the longest validity the TTTT field can express before
// the protocol's max-purge sentinel takes over (99 hours).
const maxPurgeMinutes = 5940

// QuantizePurge converts an alert's validity duration into the 4-digit SAME
// purge-time field (TTTT). The protocol coarsens granularity as the duration
// grows:
//
//	> 5940 min          "9930" (max-purge sentinel)
//	361-5940 min        hours + minutes floored to the whole hour
//	61-360 min          hours + minutes floored to the half hour
//	0-60 min            "00" + minutes floored to the quarter hour
//
// Durations are truncated to whole minutes first; negative durations encode
// as "0000".
func QuantizePurge(d time.Duration) string {
	minutes := int(d / time.Minute)
	switch {
	case minutes < 0:
		return "0000"
	case minutes > maxPurgeMinutes:
		return "9930"
	case minutes > 360:
		// The minute field carries whole hours only in this band.
		return fmt.Sprintf("%02d00", minutes/60)
	case minutes > 60:
		return fmt.Sprintf("%02d%02d", minutes/60, (minutes%60)/30*30)
	default:
		return fmt.Sprintf("00%02d", minutes/15*15)
	}
}
