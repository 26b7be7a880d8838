package domain

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizePurge(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"zero", 0, "0000"},
		{"negative clamps", -10 * time.Minute, "0000"},
		{"sub quarter hour", 14 * time.Minute, "0000"},
		{"exact quarter hour", 15 * time.Minute, "0015"},
		{"45 minutes", 45 * time.Minute, "0045"},
		{"59 minutes", 59 * time.Minute, "0045"},
		{"exactly one hour", 60 * time.Minute, "0060"},
		{"just over an hour", 61 * time.Minute, "0100"},
		{"90 minutes", 90 * time.Minute, "0130"},
		{"100 minutes floors to half hour", 100 * time.Minute, "0130"},
		{"six hours", 360 * time.Minute, "0600"},
		{"just over six hours", 361 * time.Minute, "0600"},
		{"six and a half hours floors to whole hour", 390 * time.Minute, "0600"},
		{"one day", 24 * time.Hour, "2400"},
		{"protocol maximum", 5940 * time.Minute, "9900"},
		{"beyond maximum", 5941 * time.Minute, "9930"},
		{"one week", 7 * 24 * time.Hour, "9930"},
		{"seconds truncate to minutes", 15*time.Minute + 59*time.Second, "0015"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuantizePurge(tt.duration))
		})
	}
}

func TestQuantizePurge_BandProperties(t *testing.T) {
	t.Run("quarter-hour band", func(t *testing.T) {
		for d := 0; d <= 60; d++ {
			got := QuantizePurge(time.Duration(d) * time.Minute)
			require.Len(t, got, 4, "duration %dm", d)
			assert.Equal(t, "00", got[:2], "duration %dm", d)
			mins, err := strconv.Atoi(got[2:])
			require.NoError(t, err)
			assert.Zero(t, mins%15, "duration %dm: minute field %d not a multiple of 15", d, mins)
		}
	})

	t.Run("half-hour band", func(t *testing.T) {
		for d := 61; d <= 360; d++ {
			got := QuantizePurge(time.Duration(d) * time.Minute)
			assert.Equal(t, fmt.Sprintf("%02d", d/60), got[:2], "duration %dm", d)
			mins, err := strconv.Atoi(got[2:])
			require.NoError(t, err)
			assert.Zero(t, mins%30, "duration %dm", d)
		}
	})

	t.Run("whole-hour band", func(t *testing.T) {
		for d := 361; d <= 5940; d += 7 {
			got := QuantizePurge(time.Duration(d) * time.Minute)
			assert.Equal(t, fmt.Sprintf("%02d", d/60), got[:2], "duration %dm", d)
			assert.Equal(t, "00", got[2:], "duration %dm", d)
		}
	})

	t.Run("sentinel band", func(t *testing.T) {
		for _, d := range []int{5941, 6000, 99999} {
			assert.Equal(t, "9930", QuantizePurge(time.Duration(d)*time.Minute), "duration %dm", d)
		}
	})
}
