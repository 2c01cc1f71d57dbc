package session

import (
	"github.com/deepch/vdk/codec/h264parser"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media/samplebuilder"
	"github.com/rs/zerolog"

	"github.com/oculab/visor/internal/xr"
)

// maxLatePackets is the samplebuilder reorder window. Late packets
// beyond it are dropped in favor of latency.
const maxLatePackets = 64

const naluTypeSPS = 7

// VideoSource is one inbound camera stream bound to a decode target.
// It lives for the whole session; there is no teardown beyond its track
// ending.
type VideoSource struct {
	id      string
	decoder xr.Decoder
	logger  zerolog.Logger

	width  int
	height int
}

func newVideoSource(id string, decoder xr.Decoder, logger *zerolog.Logger) *VideoSource {
	return &VideoSource{
		id:      id,
		decoder: decoder,
		logger:  logger.With().Str("component", "source").Str("track", id).Logger(),
	}
}

// ID is the remote track id this source is bound to.
func (s *VideoSource) ID() string { return s.id }

// Ready reports whether a displayable frame exists.
func (s *VideoSource) Ready() bool {
	_, _, _, ok := s.decoder.Frame()
	return ok
}

// Frame returns the newest decoded picture. ok is false until the
// decoder has produced its first frame.
func (s *VideoSource) Frame() ([]byte, int, int, bool) {
	return s.decoder.Frame()
}

// consume reassembles access units from the track's RTP packets and
// hands them to the decode target. It exits when the track ends.
func (s *VideoSource) consume(track *webrtc.TrackRemote) {
	builder := samplebuilder.New(maxLatePackets, &codecs.H264Packet{}, track.Codec().ClockRate)

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			s.logger.Debug().Err(err).Msg("track ended")
			return
		}

		builder.Push(pkt)
		for sample := builder.Pop(); sample != nil; sample = builder.Pop() {
			s.probeDimensions(sample.Data)
			s.decoder.Decode(*sample)
		}
	}
}

// probeDimensions parses the first SPS out of an access unit to learn
// the coded picture size. Parse failures are ignored; the size is
// informational and the decode target does its own parsing.
func (s *VideoSource) probeDimensions(accessUnit []byte) {
	if s.width != 0 {
		return
	}

	nalus, _ := h264parser.SplitNALUs(accessUnit)
	for _, nalu := range nalus {
		if len(nalu) == 0 || nalu[0]&0x1f != naluTypeSPS {
			continue
		}
		info, err := h264parser.ParseSPS(nalu)
		if err != nil {
			continue
		}
		s.width = int(info.Width)
		s.height = int(info.Height)
		s.logger.Info().Int("width", s.width).Int("height", s.height).Msg("probed stream dimensions")
		return
	}
}
