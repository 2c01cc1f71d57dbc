// Package signal defines the JSON wire format exchanged with the robot
// server over the signaling socket. Every frame is a single JSON object
// tagged by "type"; SDP and ICE candidates use the field names the server
// expects verbatim.
package signal

import (
	"github.com/pion/webrtc/v3"
)

// Message types carried on the signaling socket.
const (
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
)

// Message is one signaling socket frame, in either direction.
// Unused fields stay empty and are omitted on the wire.
type Message struct {
	Type string `json:"type"`
	SDP  string `json:"sdp,omitempty"`

	Candidate     string  `json:"candidate,omitempty"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// OfferMessage wraps a local session description into a signaling frame.
func OfferMessage(sdp *webrtc.SessionDescription) Message {
	return Message{
		Type: TypeOffer,
		SDP:  sdp.SDP,
	}
}

// AnswerSDP extracts the remote session description from an answer frame.
func AnswerSDP(m Message) webrtc.SessionDescription {
	return webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  m.SDP,
	}
}

// OfferSDP extracts the session description from an offer frame. The
// headset only sends offers; this is for the answering side.
func OfferSDP(m Message) webrtc.SessionDescription {
	return webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  m.SDP,
	}
}

// CandidateMessage wraps a locally discovered ICE candidate into a
// signaling frame for trickling to the remote peer.
func CandidateMessage(c *webrtc.ICECandidate) Message {
	init := c.ToJSON()
	return Message{
		Type:          TypeCandidate,
		Candidate:     init.Candidate,
		SDPMid:        init.SDPMid,
		SDPMLineIndex: init.SDPMLineIndex,
	}
}

// CandidateInit converts a candidate frame into pion's candidate init.
// The second return is false for end-of-candidates frames (empty
// candidate string), which must be ignored rather than added.
func CandidateInit(m Message) (webrtc.ICECandidateInit, bool) {
	if m.Candidate == "" {
		return webrtc.ICECandidateInit{}, false
	}
	return webrtc.ICECandidateInit{
		Candidate:     m.Candidate,
		SDPMid:        m.SDPMid,
		SDPMLineIndex: m.SDPMLineIndex,
	}, true
}
