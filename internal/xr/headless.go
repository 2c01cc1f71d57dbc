package xr

import (
	"context"
	"time"
)

// Headless is a Host without tracking hardware. It ticks at a fixed
// refresh rate and reports neither a viewer pose nor input sources, so a
// viewer driven by it negotiates and consumes media but never draws or
// transmits. Used for soak-testing the session path on machines without
// a headset.
type Headless struct {
	interval time.Duration
	start    time.Time
}

// NewHeadless returns a Headless host ticking at the given refresh rate.
func NewHeadless(refreshHz int) *Headless {
	if refreshHz <= 0 {
		refreshHz = 72
	}
	return &Headless{
		interval: time.Second / time.Duration(refreshHz),
		start:    time.Now(),
	}
}

func (h *Headless) NextFrame(ctx context.Context) (*Frame, error) {
	timer := time.NewTimer(h.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case now := <-timer.C:
		return &Frame{Time: now.Sub(h.start).Seconds()}, nil
	}
}
