package input

import (
	"encoding/json"
	"testing"

	"github.com/oculab/visor/internal/xr"
)

func controller(hand xr.Handedness) xr.InputSource {
	return xr.InputSource{
		Handedness: hand,
		GripPose: &xr.Pose{
			Position:    [3]float64{0.1, 1.2, -0.3},
			Orientation: [4]float64{0, 0.707, 0, 0.707},
		},
		Gamepad: &xr.Gamepad{
			Buttons: []xr.Button{
				{Value: 0.9},           // trigger
				{Value: 0.5},           // grip
				{},                     // touchpad press, unused
				{},                     // reserved
				{Pressed: true},        // a
				{Value: 1, Pressed: false}, // b
			},
			Axes: []float64{0, 0, -0.25, 0.75},
		},
	}
}

func TestSampleRequiresTrackedHand(t *testing.T) {
	t.Run("no inputs", func(t *testing.T) {
		if _, ok := Sample(&xr.Frame{Time: 1}); ok {
			t.Fatal("sample must not be produced without a tracked hand")
		}
	})

	t.Run("pose without gamepad", func(t *testing.T) {
		frame := &xr.Frame{
			Inputs: []xr.InputSource{{
				Handedness: xr.HandLeft,
				GripPose:   &xr.Pose{},
			}},
		}
		if _, ok := Sample(frame); ok {
			t.Fatal("a source without gamepad state is not a controller")
		}
	})

	t.Run("gamepad without pose", func(t *testing.T) {
		frame := &xr.Frame{
			Inputs: []xr.InputSource{{
				Handedness: xr.HandRight,
				Gamepad:    &xr.Gamepad{},
			}},
		}
		if _, ok := Sample(frame); ok {
			t.Fatal("a source without a grip pose is not a controller")
		}
	})
}

func TestSampleNeutralFill(t *testing.T) {
	frame := &xr.Frame{
		Time:   2.5,
		Inputs: []xr.InputSource{controller(xr.HandRight)},
	}

	s, ok := Sample(frame)
	if !ok {
		t.Fatal("expected a sample with one tracked hand")
	}
	if s.Type != MessageType {
		t.Fatalf("type is incorrect, got %s want %s", s.Type, MessageType)
	}
	if s.Timestamp != 2.5 {
		t.Fatalf("timestamp is incorrect, got %v want 2.5", s.Timestamp)
	}

	// The untracked left hand and head must be exactly neutral.
	if s.Left != NeutralHand() {
		t.Fatalf("left hand is not neutral: %+v", s.Left)
	}
	if s.Head != NeutralHead() {
		t.Fatalf("head is not neutral: %+v", s.Head)
	}

	if s.Right.Trigger != 0.9 || s.Right.Grip != 0.5 {
		t.Fatalf("analog values are incorrect: %+v", s.Right)
	}
	if s.Right.Thumbstick != [2]float64{-0.25, 0.75} {
		t.Fatalf("thumbstick is incorrect: %v", s.Right.Thumbstick)
	}
	if !s.Right.Buttons.A || s.Right.Buttons.B {
		t.Fatalf("buttons are incorrect: %+v", s.Right.Buttons)
	}
}

func TestSampleTracksHeadWhenAvailable(t *testing.T) {
	frame := &xr.Frame{
		Head:   &xr.Pose{Position: [3]float64{0, 1.7, 0}, Orientation: [4]float64{0, 0, 0, 1}},
		Inputs: []xr.InputSource{controller(xr.HandLeft), controller(xr.HandRight)},
	}

	s, ok := Sample(frame)
	if !ok {
		t.Fatal("expected a sample")
	}
	if s.Head.Position != [3]float64{0, 1.7, 0} {
		t.Fatalf("head position is incorrect: %v", s.Head.Position)
	}
	if s.Left == NeutralHand() || s.Right == NeutralHand() {
		t.Fatal("both hands are tracked, neither may be neutral")
	}
}

func TestSampleShortGamepadDefaultsToZero(t *testing.T) {
	frame := &xr.Frame{
		Inputs: []xr.InputSource{{
			Handedness: xr.HandLeft,
			GripPose:   &xr.Pose{Orientation: [4]float64{0, 0, 0, 1}},
			Gamepad: &xr.Gamepad{
				Buttons: []xr.Button{{Value: 0.4}}, // trigger only
				Axes:    []float64{0.9},            // no thumbstick pair
			},
		}},
	}

	s, ok := Sample(frame)
	if !ok {
		t.Fatal("expected a sample")
	}
	left := s.Left
	if left.Trigger != 0.4 {
		t.Fatalf("trigger is incorrect, got %v want 0.4", left.Trigger)
	}
	if left.Grip != 0 || left.Thumbstick != [2]float64{} || left.Buttons != (Buttons{}) {
		t.Fatalf("absent indices must default to zero: %+v", left)
	}
}

func TestSampleWireShape(t *testing.T) {
	frame := &xr.Frame{
		Time:   3,
		Inputs: []xr.InputSource{controller(xr.HandLeft)},
	}
	s, ok := Sample(frame)
	if !ok {
		t.Fatal("expected a sample")
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"type", "timestamp", "left", "right", "head"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing top-level field %q in %s", key, b)
		}
	}
	right := decoded["right"].(map[string]interface{})
	for _, key := range []string{"position", "orientation", "trigger", "grip", "thumbstick", "buttons"} {
		if _, ok := right[key]; !ok {
			t.Fatalf("missing hand field %q in %s", key, b)
		}
	}
	if n := len(right["orientation"].([]interface{})); n != 4 {
		t.Fatalf("orientation must have 4 components, got %d", n)
	}
}
