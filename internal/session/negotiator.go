// Package session establishes the peer session with the robot server:
// signaling over a WebSocket control socket, one latency-optimized data
// channel for controller state, and up to three inbound camera streams.
// Exactly one session is negotiated per process lifetime; on failure the
// operator restarts, nothing reconnects on its own.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/oculab/visor/internal/input"
	"github.com/oculab/visor/internal/signal"
	"github.com/oculab/visor/internal/xr"
)

const (
	// MaxSources is the fixed capacity for inbound camera streams.
	MaxSources = 3

	dataChannelLabel = "controller"

	writeTimeout    = 5 * time.Second
	rtcpPLIInterval = 3 * time.Second
	readLimit       = 1 << 20
)

// dataSender is the outbound channel surface SendControllerState needs.
// *webrtc.DataChannel satisfies it.
type dataSender interface {
	ReadyState() webrtc.DataChannelState
	Send([]byte) error
}

// peer is the remote-description surface the signaling loop needs.
// *webrtc.PeerConnection satisfies it.
type peer interface {
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
}

// NotifyFunc receives operator-facing status strings ("connected",
// "disconnected", negotiation failures).
type NotifyFunc func(status string)

// Option customizes a Negotiator.
type Option func(*Negotiator)

// WithDecoderFactory sets the factory producing a decode target per
// inbound stream. Defaults to xr.NopDecoder.
func WithDecoderFactory(f func() xr.Decoder) Option {
	return func(n *Negotiator) { n.newDecoder = f }
}

// WithNotify sets the status notification sink.
func WithNotify(f NotifyFunc) Option {
	return func(n *Negotiator) { n.notify = f }
}

// Negotiator owns the session: it is the only writer of the connection
// state and the video source list; everyone else takes snapshots.
type Negotiator struct {
	config     ConfigOptions
	logger     zerolog.Logger
	newDecoder func() xr.Decoder
	notify     NotifyFunc

	ws      *websocket.Conn
	pc      *webrtc.PeerConnection
	peer    peer
	channel dataSender

	mu            sync.Mutex
	state         State
	everConnected bool
	remoteSet     bool
	sources       []*VideoSource

	connectedCh chan struct{}
	doneCh      chan struct{}
	doneOnce    sync.Once
	doneErr     error
}

// New returns an unstarted Negotiator. The logger is taken from ctx.
func New(ctx context.Context, config ConfigOptions, opts ...Option) *Negotiator {
	n := &Negotiator{
		config:      config,
		logger:      log.Ctx(ctx).With().Str("component", "session").Logger(),
		newDecoder:  func() xr.Decoder { return xr.NopDecoder{} },
		notify:      func(string) {},
		state:       StateNew,
		connectedCh: make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Start dials the control socket, sends the offer and launches the
// signaling read loop. Completion is observed via Connected and Done;
// Start itself only fails on dial or local setup errors.
func (n *Negotiator) Start(ctx context.Context) error {
	ws, _, err := websocket.Dial(ctx, n.config.SignalURL, nil)
	if err != nil {
		return fmt.Errorf("could not dial control socket %s: %w", n.config.SignalURL, err)
	}
	ws.SetReadLimit(readLimit)
	n.ws = ws
	n.logger.Info().Str("url", n.config.SignalURL).Msg("control socket open")

	if err := n.createPeerConnection(); err != nil {
		n.closeTransports(websocket.StatusInternalError, "setup failed")
		return err
	}

	if err := n.sendOffer(); err != nil {
		n.closeTransports(websocket.StatusInternalError, "setup failed")
		return err
	}
	n.logger.Info().Msg("sent local description offer")

	go n.readLoop()

	return nil
}

func (n *Negotiator) sendOffer() error {
	offer, err := n.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("could not create offer: %w", err)
	}
	if err := n.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("could not set local description: %w", err)
	}
	if err := n.writeSignal(signal.OfferMessage(n.pc.LocalDescription())); err != nil {
		return fmt.Errorf("could not send offer: %w", err)
	}
	return nil
}

// closeTransports releases whichever of the control socket and peer
// connection exist. Safe to call with either still unset.
func (n *Negotiator) closeTransports(code websocket.StatusCode, reason string) {
	if n.ws != nil {
		_ = n.ws.Close(code, reason)
	}
	if n.pc != nil {
		_ = n.pc.Close()
	}
}

func (n *Negotiator) createPeerConnection() error {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return fmt.Errorf("could not register codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return fmt.Errorf("could not register interceptors: %w", err)
	}

	settingEngine := webrtc.SettingEngine{
		LoggerFactory: adapter(&pionLogger{&n.logger}),
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(settingEngine),
	)

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs:       []string{n.config.ICEServer},
				Username:   n.config.Username,
				Credential: n.config.Credential,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not create PeerConnection: %w", err)
	}
	n.pc = pc
	n.peer = pc

	// Best-effort, unordered, zero retransmits: pose samples are only
	// useful fresh, head-of-line blocking is worse than loss.
	ordered := false
	var maxRetransmits uint16
	channel, err := pc.CreateDataChannel(dataChannelLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		return fmt.Errorf("could not create data channel: %w", err)
	}
	channel.OnOpen(func() {
		n.logger.Info().Str("label", dataChannelLabel).Msg("data channel open")
	})
	n.channel = channel

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		// Trickle: every candidate goes out the moment it is found.
		if err := n.writeSignal(signal.CandidateMessage(c)); err != nil {
			n.logger.Err(err).Msg("could not send candidate")
			return
		}
		n.logger.Debug().Msg("sent an ICE candidate")
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		n.handleTrack(track)
	})

	pc.OnConnectionStateChange(n.handleConnectionState)

	// Advertise capacity for the three camera feeds; the client itself
	// sends no media.
	for i := 0; i < MaxSources; i++ {
		if _, err := pc.AddTransceiverFromKind(
			webrtc.RTPCodecTypeVideo,
			webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly},
		); err != nil {
			return fmt.Errorf("could not add recvonly transceiver: %w", err)
		}
	}

	n.logger.Info().Msg("created PeerConnection")
	return nil
}

func (n *Negotiator) readLoop() {
	for {
		var m signal.Message
		if err := wsjson.Read(context.Background(), n.ws, &m); err != nil {
			n.shutdown(fmt.Errorf("control socket closed: %w", err))
			return
		}
		n.handleSignal(m)
	}
}

// handleSignal applies one inbound signaling frame to the peer session.
func (n *Negotiator) handleSignal(m signal.Message) {
	switch m.Type {
	case signal.TypeAnswer:
		n.mu.Lock()
		applied := n.remoteSet
		n.mu.Unlock()
		if applied {
			n.logger.Warn().Msg("duplicate answer ignored")
			return
		}
		// A rejected answer is terminal: without a remote description ICE
		// never starts, so no connection state change would surface it.
		if err := n.peer.SetRemoteDescription(signal.AnswerSDP(m)); err != nil {
			n.shutdown(fmt.Errorf("could not set remote description: %w", err))
			return
		}
		n.mu.Lock()
		n.remoteSet = true
		n.mu.Unlock()
		n.logger.Info().Msg("set remote description")
	case signal.TypeCandidate:
		init, ok := signal.CandidateInit(m)
		if !ok {
			// End-of-candidates marker, nothing to add.
			n.logger.Debug().Msg("ignoring empty remote candidate")
			return
		}
		if err := n.peer.AddICECandidate(init); err != nil {
			n.logger.Err(err).Msg("could not add ICE candidate")
			return
		}
		n.logger.Debug().Msg("added a remote ICE candidate")
	default:
		n.logger.Warn().Str("type", m.Type).Msg("unknown signal message")
	}
}

func (n *Negotiator) handleTrack(track *webrtc.TrackRemote) {
	source := newVideoSource(track.ID(), n.newDecoder(), &n.logger)

	n.mu.Lock()
	if len(n.sources) >= MaxSources {
		n.mu.Unlock()
		n.logger.Warn().Str("track", track.ID()).Msg("all video slots taken, dropping track")
		return
	}
	n.sources = append(n.sources, source)
	index := len(n.sources) - 1
	n.mu.Unlock()

	n.logger.Info().Str("track", track.ID()).Int("slot", index).Msg("remote video track arrived")

	go source.consume(track)
	go n.sendPLI(track)
}

// sendPLI asks the remote peer for a keyframe on an interval so a feed
// that joins late (or drops packets) recovers a full picture quickly.
func (n *Negotiator) sendPLI(track *webrtc.TrackRemote) {
	ticker := time.NewTicker(rtcpPLIInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.doneCh:
			return
		case <-ticker.C:
			if err := n.pc.WriteRTCP([]rtcp.Packet{
				&rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())},
			}); err != nil {
				n.logger.Debug().Err(err).Msg("could not send PLI")
				return
			}
		}
	}
}

func (n *Negotiator) handleConnectionState(peerState webrtc.PeerConnectionState) {
	n.mu.Lock()
	state, ev := nextState(n.state, n.everConnected, peerState)
	n.state = state
	if ev == eventConnected {
		n.everConnected = true
	}
	n.mu.Unlock()

	n.logger.Info().Str("state", peerState.String()).Msg("connection state has changed")

	switch ev {
	case eventConnected:
		close(n.connectedCh)
		n.notify("connected")
	case eventDisconnected:
		n.shutdown(fmt.Errorf("peer connection %s", peerState))
	}
}

// shutdown finishes the session exactly once. There is no reconnect:
// the failure is surfaced and the operator decides.
func (n *Negotiator) shutdown(err error) {
	n.doneOnce.Do(func() {
		n.mu.Lock()
		wasConnected := n.everConnected
		n.state = StateDisconnected
		n.mu.Unlock()

		n.doneErr = err
		if wasConnected {
			n.notify("disconnected")
		} else {
			n.notify("connection failed: " + err.Error())
		}
		n.logger.Warn().Err(err).Msg("session is over")
		close(n.doneCh)
	})
}

func (n *Negotiator) writeSignal(m signal.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, n.ws, m)
}

// SendControllerState transmits one pose sample, best effort. Before
// the channel opens (and after it closes) samples are silently dropped;
// that is the expected steady state during negotiation, not an error.
func (n *Negotiator) SendControllerState(sample *input.ControllerSample) {
	channel := n.channel
	if channel == nil || channel.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		n.logger.Debug().Err(err).Msg("could not marshal controller sample")
		return
	}
	if err := channel.Send(payload); err != nil {
		n.logger.Debug().Err(err).Msg("could not send controller sample")
	}
}

// Sources returns the current inbound video sources in arrival order.
// Arrival order is the only camera identity there is: by convention
// wrist-left, wrist-right, exo. The slice is a snapshot; callers must
// re-read it every tick.
func (n *Negotiator) Sources() []*VideoSource {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*VideoSource, len(n.sources))
	copy(out, n.sources)
	return out
}

// State returns the current session state.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Connected is closed the first time the peer session connects.
func (n *Negotiator) Connected() <-chan struct{} { return n.connectedCh }

// Done is closed when the session is over, whichever side ended it.
func (n *Negotiator) Done() <-chan struct{} { return n.doneCh }

// Err reports why the session ended. Valid after Done is closed.
func (n *Negotiator) Err() error { return n.doneErr }

// Close tears the session down locally.
func (n *Negotiator) Close() error {
	n.shutdown(errors.New("closed locally"))
	n.closeTransports(websocket.StatusNormalClosure, "")
	return nil
}
