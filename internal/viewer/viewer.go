// Package viewer runs the per-frame loop: sample controller poses, push
// them down the session's data channel, refresh the quad textures and
// draw both eyes. Everything inside a tick is synchronous and
// non-blocking; pacing comes solely from the host's frame clock.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oculab/visor/internal/input"
	"github.com/oculab/visor/internal/render"
	"github.com/oculab/visor/internal/session"
	"github.com/oculab/visor/internal/xr"
)

// Session is the read side of the negotiated session the loop needs.
// *session.Negotiator satisfies it.
type Session interface {
	SendControllerState(sample *input.ControllerSample)
	Sources() []*session.VideoSource
	Connected() <-chan struct{}
	Done() <-chan struct{}
	Err() error
}

// Viewer wires the frame loop together. Components are injected at
// startup; nothing here owns global state.
type Viewer struct {
	host     xr.Host
	session  Session
	pipeline *render.Pipeline
	logger   zerolog.Logger
}

// New returns a Viewer driving the given host, session and pipeline.
func New(ctx context.Context, host xr.Host, sess Session, pipeline *render.Pipeline) *Viewer {
	return &Viewer{
		host:     host,
		session:  sess,
		pipeline: pipeline,
		logger:   log.Ctx(ctx).With().Str("component", "viewer").Logger(),
	}
}

// Run blocks until the immersive session ends, the peer session is over
// or ctx is cancelled. It waits for the peer session to connect before
// ticking.
func (v *Viewer) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-v.session.Done():
		return fmt.Errorf("session ended before connecting: %w", v.session.Err())
	case <-v.session.Connected():
	}
	v.logger.Info().Msg("session connected, entering frame loop")

	for {
		// Explicit stop conditions, checked every iteration.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.session.Done():
			v.logger.Warn().Err(v.session.Err()).Msg("session is over, leaving frame loop")
			return nil
		default:
		}

		frame, err := v.host.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, xr.ErrEnded) {
				v.logger.Info().Msg("immersive session ended")
				return nil
			}
			return err
		}

		v.tick(frame)
	}
}

// tick executes one frame: bind, sample, send, upload, draw. Transient
// conditions (no tracked hand, channel not open, no stereo pose) are
// absorbed here and never escalate.
func (v *Viewer) tick(frame *xr.Frame) {
	v.pipeline.BeginFrame()

	if sample, ok := input.Sample(frame); ok {
		v.session.SendControllerState(sample)
	}

	// Always re-read the session state; negotiation callbacks may have
	// grown the source list since the previous tick.
	sources := v.session.Sources()
	feeds := make([]render.Source, len(sources))
	for i, s := range sources {
		feeds[i] = s
	}
	v.pipeline.Upload(feeds)

	if frame.Viewer == nil {
		// Tracking loss: better no picture than a stale pose.
		return
	}
	for i := range frame.Viewer.Views {
		v.pipeline.DrawEye(&frame.Viewer.Views[i])
	}
}
