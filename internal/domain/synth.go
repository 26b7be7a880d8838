package domain

import (
	"context"
	"time"
)

// AudioClip is an opaque audio buffer produced by the synthesis collaborator.
// The core never inspects the bytes; it only orders clips into a program.
type AudioClip struct {
	Data     []byte
	Duration time.Duration
}

// Announcement is a rendered, playable program: the SAME header burst with
// attention tone, the spoken alert text, and the end-of-message burst.
type Announcement struct {
	MediaURL string
	Duration time.Duration
}

// AudioSynthesizer generates the audio pieces of an EAS announcement.
// Waveform work (AFSK bursts, attention tone, TTS voices) is delegated
// entirely to the implementation; the core supplies strings and consumes
// opaque buffers.
type AudioSynthesizer interface {
	// HeaderBurst encodes the full SAME header plus attention tone.
	HeaderBurst(ctx context.Context, fullHeader string) (AudioClip, error)

	// EndOfMessage encodes the NNNN end-of-message burst.
	EndOfMessage(ctx context.Context) (AudioClip, error)

	// Speech synthesizes the spoken alert text.
	Speech(ctx context.Context, text string) (AudioClip, error)

	// Render concatenates clips in order into a playable announcement.
	// cacheKey (the minimal header) lets the implementation reuse audio
	// generated for a repeated alert.
	Render(ctx context.Context, cacheKey string, clips ...AudioClip) (Announcement, error)
}
