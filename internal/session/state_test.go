package session

import (
	"testing"

	"github.com/pion/webrtc/v3"
)

func TestConnectedFiresExactlyOnce(t *testing.T) {
	// new -> connecting -> connected -> disconnected -> connected:
	// the connected notification must fire on the first arrival only.
	sequence := []webrtc.PeerConnectionState{
		webrtc.PeerConnectionStateNew,
		webrtc.PeerConnectionStateConnecting,
		webrtc.PeerConnectionStateConnected,
		webrtc.PeerConnectionStateDisconnected,
		webrtc.PeerConnectionStateConnected,
	}

	state := StateNew
	everConnected := false
	connectedEvents := 0

	for _, peerState := range sequence {
		var ev event
		state, ev = nextState(state, everConnected, peerState)
		if ev == eventConnected {
			everConnected = true
			connectedEvents++
		}
	}

	if connectedEvents != 1 {
		t.Fatalf("connected events are incorrect, got %d want 1", connectedEvents)
	}
	if state != StateConnected {
		t.Fatalf("final state is incorrect, got %s want %s", state, StateConnected)
	}
}

func TestTransientDisconnectIsNotTerminal(t *testing.T) {
	state, ev := nextState(StateConnected, true, webrtc.PeerConnectionStateDisconnected)
	if ev != eventNone {
		t.Fatalf("transient disconnect raised event %v", ev)
	}
	if state != StateDisconnected {
		t.Fatalf("state is incorrect, got %s want %s", state, StateDisconnected)
	}
}

func TestFailureIsTerminal(t *testing.T) {
	for _, peerState := range []webrtc.PeerConnectionState{
		webrtc.PeerConnectionStateFailed,
		webrtc.PeerConnectionStateClosed,
	} {
		state, ev := nextState(StateConnected, true, peerState)
		if ev != eventDisconnected {
			t.Fatalf("%s must raise the disconnected event", peerState)
		}
		if state != StateFailed {
			t.Fatalf("state is incorrect, got %s want %s", state, StateFailed)
		}
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateNew:          "new",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateDisconnected: "disconnected",
		StateFailed:       "failed",
	} {
		if got := state.String(); got != want {
			t.Fatalf("string is incorrect, got %s want %s", got, want)
		}
	}
}
