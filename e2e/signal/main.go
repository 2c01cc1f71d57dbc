// Command signal is a manual test server for the view command. It
// answers the headset's offer on /ws/signaling, logs every
// controller_state message it receives and forwards RTP packets from
// three local UDP ports into the three video tracks, so a real encoder
// (ffmpeg, gstreamer) can feed the headset.
//
// Feed a camera like so:
//
//	ffmpeg -re -i sample.mp4 -an -c:v libx264 -f rtp rtp://127.0.0.1:5004
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/pion/randutil"
	"github.com/pion/webrtc/v3"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/oculab/visor/internal/signal"
)

const (
	addr      = ":8000"
	cameras   = 3
	firstPort = 5004
)

func main() {
	http.HandleFunc("/ws/signaling", handleSignaling)
	log.Printf("signaling test server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func handleSignaling(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("accept: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "session over")

	ctx := r.Context()

	var offer signal.Message
	if err := wsjson.Read(ctx, c, &offer); err != nil {
		log.Printf("read offer: %v", err)
		return
	}
	if offer.Type != signal.TypeOffer {
		log.Printf("expected an offer, got %q", offer.Type)
		return
	}

	pc, tracks, err := createPeerConnection(ctx, c)
	if err != nil {
		log.Printf("peer connection: %v", err)
		return
	}
	defer pc.Close()

	if err := pc.SetRemoteDescription(signal.OfferSDP(offer)); err != nil {
		log.Printf("set remote description: %v", err)
		return
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		log.Printf("create answer: %v", err)
		return
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		log.Printf("set local description: %v", err)
		return
	}
	if err := wsjson.Write(ctx, c, signal.Message{Type: signal.TypeAnswer, SDP: answer.SDP}); err != nil {
		log.Printf("write answer: %v", err)
		return
	}

	for i, track := range tracks {
		go func(port int, track *webrtc.TrackLocalStaticRTP) {
			if err := rtpListener(fmt.Sprintf("0.0.0.0:%d", port), track); err != nil {
				log.Printf("rtp listener on %d: %v", port, err)
			}
		}(firstPort+i, track)
	}

	// The remaining inbound messages are trickled candidates.
	for {
		var msg signal.Message
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			log.Printf("signaling closed: %v", err)
			return
		}
		if msg.Type != signal.TypeCandidate {
			continue
		}
		candidate, ok := signal.CandidateInit(msg)
		if !ok {
			continue
		}
		if err := pc.AddICECandidate(candidate); err != nil {
			log.Printf("add candidate: %v", err)
		}
	}
}

func createPeerConnection(ctx context.Context, c *websocket.Conn) (*webrtc.PeerConnection, []*webrtc.TrackLocalStaticRTP, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
	if err != nil {
		return nil, nil, err
	}

	tracks := make([]*webrtc.TrackLocalStaticRTP, 0, cameras)
	for i := 0; i < cameras; i++ {
		track, err := webrtc.NewTrackLocalStaticRTP(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
			fmt.Sprintf("video-%d", randutil.NewMathRandomGenerator().Uint32()),
			fmt.Sprintf("camera-%d", i),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("could not create TrackLocalStaticRTP: %w", err)
		}
		if _, err := pc.AddTrack(track); err != nil {
			return nil, nil, fmt.Errorf("could not add track: %w", err)
		}
		tracks = append(tracks, track)
	}

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		if err := wsjson.Write(ctx, c, signal.CandidateMessage(candidate)); err != nil {
			log.Printf("write candidate: %v", err)
		}
	})

	pc.OnDataChannel(func(channel *webrtc.DataChannel) {
		log.Printf("data channel %q open", channel.Label())
		channel.OnMessage(func(msg webrtc.DataChannelMessage) {
			log.Printf("controller state: %s", msg.Data)
		})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("connection state: %s", state)
	})

	return pc, tracks, nil
}

// rtpListener starts a UDP listener and forwards its packets into a track.
func rtpListener(address string, videoTrack *webrtc.TrackLocalStaticRTP) error {
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return fmt.Errorf("could not resolve address of %s into udp address: %w", address, err)
	}

	listener, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen UDP: %w", err)
	}
	defer listener.Close()
	log.Printf("UDP server started on %s", udpAddr)

	inboundRTPPacket := make([]byte, 1600) // UDP MTU
	for {
		n, _, err := listener.ReadFrom(inboundRTPPacket)
		if err != nil {
			return fmt.Errorf("error during read: %w", err)
		}

		if _, err = videoTrack.Write(inboundRTPPacket[:n]); err != nil {
			return fmt.Errorf("could not write to video track: %w", err)
		}
	}
}
