// Package xr declares the boundary to the immersive host: the per-frame
// clock, viewer/controller tracking and the decode targets for inbound
// video. Hardware integrations implement these interfaces; the rest of
// the program depends only on them.
package xr

import (
	"context"
	"errors"

	"github.com/pion/webrtc/v3/pkg/media"

	"github.com/oculab/visor/internal/mat4"
)

// ErrEnded is returned by NextFrame once the immersive session is over.
var ErrEnded = errors.New("xr: immersive session ended")

// Handedness labels which hand an input source belongs to.
type Handedness string

const (
	HandLeft  Handedness = "left"
	HandRight Handedness = "right"
	HandNone  Handedness = "none"
)

// Pose is a position plus an orientation quaternion in x, y, z, w order.
type Pose struct {
	Position    [3]float64
	Orientation [4]float64
}

// Button is one gamepad button snapshot.
type Button struct {
	Value   float64
	Pressed bool
}

// Gamepad is the button and axis state of one controller.
type Gamepad struct {
	Buttons []Button
	Axes    []float64
}

// InputSource is one tracked input device for the current frame.
// A source counts as a controller only when both GripPose and Gamepad
// are present.
type InputSource struct {
	Handedness Handedness
	GripPose   *Pose
	Gamepad    *Gamepad
}

// Viewport is one eye's sub-rectangle of the render target.
type Viewport struct {
	X, Y, Width, Height int
}

// View is one eye of a stereo viewer pose.
type View struct {
	Viewport   Viewport
	Projection mat4.Mat4
	// Transform is the eye-to-world transform; the pipeline inverts it
	// to build the view-projection matrix.
	Transform mat4.Mat4
}

// ViewerPose is the stereo pose for one frame. Nil views mean tracking
// was lost for this tick.
type ViewerPose struct {
	Views []View
}

// Frame is one display-refresh snapshot delivered by the host.
type Frame struct {
	// Time is monotonic seconds since an arbitrary origin.
	Time float64
	// Viewer is nil when no stereo pose is available this tick.
	Viewer *ViewerPose
	// Head is nil when the headset itself is untracked.
	Head *Pose
	// Inputs holds every input source the host currently tracks.
	Inputs []InputSource
}

// Host paces the frame loop at the display's refresh cadence.
type Host interface {
	// NextFrame blocks until the next refresh and returns that frame's
	// snapshot. It returns ErrEnded when the immersive session is over
	// and ctx.Err when the context is cancelled.
	NextFrame(ctx context.Context) (*Frame, error)
}

// Decoder is a host-provided decode target for one inbound video stream.
// Decode must not block; Frame returns the newest decoded picture, with
// ok false until the first picture is out of the decoder.
//
// Implementations must be safe for concurrent use: Decode runs on the
// stream's consume goroutine while Frame is polled from the frame loop.
type Decoder interface {
	Decode(sample media.Sample)
	Frame() (pix []byte, width, height int, ok bool)
}

// NopDecoder discards samples and never reports a frame. It stands in
// when the host has no decode capability; the bound texture then keeps
// its placeholder.
type NopDecoder struct{}

func (NopDecoder) Decode(media.Sample) {}

func (NopDecoder) Frame() ([]byte, int, int, bool) { return nil, 0, 0, false }
