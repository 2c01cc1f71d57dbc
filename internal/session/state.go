package session

import "github.com/pion/webrtc/v3"

// State is the negotiated session's lifecycle state.
type State int

const (
	StateNew State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// event is the notification a state transition raises.
type event int

const (
	eventNone event = iota
	eventConnected
	eventDisconnected
)

// nextState is the single transition function for peer connection state
// changes. All call sites funnel through it so the connected
// notification fires exactly once per session, even when the underlying
// state flickers through disconnected and back.
func nextState(cur State, everConnected bool, peer webrtc.PeerConnectionState) (State, event) {
	switch peer {
	case webrtc.PeerConnectionStateNew:
		return StateNew, eventNone
	case webrtc.PeerConnectionStateConnecting:
		return StateConnecting, eventNone
	case webrtc.PeerConnectionStateConnected:
		if everConnected {
			return StateConnected, eventNone
		}
		return StateConnected, eventConnected
	case webrtc.PeerConnectionStateDisconnected:
		// Possibly transient; pion may recover without renegotiation,
		// so no terminal notification yet.
		return StateDisconnected, eventNone
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
		return StateFailed, eventDisconnected
	default:
		return cur, eventNone
	}
}
