// Package input builds the per-frame controller_state message from the
// host's tracking snapshot.
package input

import (
	"github.com/oculab/visor/internal/xr"
)

// MessageType tags every controller_state frame on the data channel.
const MessageType = "controller_state"

// Gamepad index conventions: the first two buttons carry the analog
// trigger and grip, buttons four and five are the digital a/b pair, and
// the thumbstick lives on the third and fourth axes (the first axis pair
// is reserved for the touchpad).
const (
	buttonTrigger = 0
	buttonGrip    = 1
	buttonA       = 4
	buttonB       = 5
	axisStickX    = 2
	axisStickY    = 3
)

// Buttons is the digital button pair of one hand.
type Buttons struct {
	A bool `json:"a"`
	B bool `json:"b"`
}

// Hand is the transmitted state of one controller.
type Hand struct {
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
	Trigger     float64    `json:"trigger"`
	Grip        float64    `json:"grip"`
	Thumbstick  [2]float64 `json:"thumbstick"`
	Buttons     Buttons    `json:"buttons"`
}

// Head is the transmitted headset pose.
type Head struct {
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

// ControllerSample is one outbound controller_state message. It is
// always structurally complete: untracked parts carry neutral values.
type ControllerSample struct {
	Type      string  `json:"type"`
	Timestamp float64 `json:"timestamp"`
	Left      Hand    `json:"left"`
	Right     Hand    `json:"right"`
	Head      Head    `json:"head"`
}

// NeutralHand is the canonical value for an untracked hand: origin
// position, identity orientation, released controls.
func NeutralHand() Hand {
	return Hand{Orientation: [4]float64{0, 0, 0, 1}}
}

// NeutralHead is the canonical value for an untracked head.
func NeutralHead() Head {
	return Head{Orientation: [4]float64{0, 0, 0, 1}}
}

// Sample builds a ControllerSample from the frame snapshot. It returns
// false when no hand is tracked this tick, in which case nothing must be
// transmitted.
func Sample(frame *xr.Frame) (*ControllerSample, bool) {
	s := ControllerSample{
		Type:      MessageType,
		Timestamp: frame.Time,
		Left:      NeutralHand(),
		Right:     NeutralHand(),
		Head:      NeutralHead(),
	}

	tracked := false
	for i := range frame.Inputs {
		src := &frame.Inputs[i]
		// Only sources with both a grip pose and gamepad state are
		// controllers; anything else (gaze, bare hands) is skipped.
		if src.GripPose == nil || src.Gamepad == nil {
			continue
		}
		switch src.Handedness {
		case xr.HandLeft:
			s.Left = handState(src)
		case xr.HandRight:
			s.Right = handState(src)
		default:
			continue
		}
		tracked = true
	}
	if !tracked {
		return nil, false
	}

	if frame.Head != nil {
		s.Head = Head{
			Position:    frame.Head.Position,
			Orientation: frame.Head.Orientation,
		}
	}
	return &s, true
}

func handState(src *xr.InputSource) Hand {
	h := Hand{
		Position:    src.GripPose.Position,
		Orientation: src.GripPose.Orientation,
	}

	pad := src.Gamepad
	h.Trigger = buttonValue(pad, buttonTrigger)
	h.Grip = buttonValue(pad, buttonGrip)
	h.Thumbstick = [2]float64{axisValue(pad, axisStickX), axisValue(pad, axisStickY)}
	h.Buttons = Buttons{
		A: buttonPressed(pad, buttonA),
		B: buttonPressed(pad, buttonB),
	}
	return h
}

func buttonValue(pad *xr.Gamepad, i int) float64 {
	if i >= len(pad.Buttons) {
		return 0
	}
	return pad.Buttons[i].Value
}

func buttonPressed(pad *xr.Gamepad, i int) bool {
	if i >= len(pad.Buttons) {
		return false
	}
	return pad.Buttons[i].Pressed
}

func axisValue(pad *xr.Gamepad, i int) float64 {
	if i >= len(pad.Axes) {
		return 0
	}
	return pad.Axes[i]
}
