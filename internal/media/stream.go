// Package media holds the capture and rendering collaborators of a call.
// Nothing here negotiates; streams are handed to the session engine and
// remote tracks are handed back to a Sink.
package media

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// ErrCaptureUnavailable is returned when no media kind can be captured.
var ErrCaptureUnavailable = errors.New("media capture unavailable")

// Stream is a read-only handle on a set of local tracks. Holders never
// mutate it.
type Stream interface {
	ID() string
	Tracks() []webrtc.TrackLocal
}

// LocalStream is a fixed set of local tracks sharing a stream ID.
type LocalStream struct {
	id     string
	tracks []webrtc.TrackLocal
}

// NewLocalStream groups tracks under id.
func NewLocalStream(id string, tracks ...webrtc.TrackLocal) *LocalStream {
	return &LocalStream{id: id, tracks: tracks}
}

func (s *LocalStream) ID() string { return s.id }

// Tracks returns a copy of the track list.
func (s *LocalStream) Tracks() []webrtc.TrackLocal {
	out := make([]webrtc.TrackLocal, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Capturer acquires local media.
type Capturer interface {
	Capture(ctx context.Context) (Stream, error)
}

// StaticCapturer produces sample-based Opus audio and VP8 video tracks. The
// tracks are created on the first Capture and the same stream is returned
// afterwards. With Silence set, Opus silence frames are written to the audio
// track until the first Capture's context ends.
type StaticCapturer struct {
	Audio   bool
	Video   bool
	Silence bool

	mu     sync.Mutex
	stream *LocalStream
}

// Capture returns the capturer's stream, building it on first use.
func (c *StaticCapturer) Capture(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return c.stream, nil
	}
	if !c.Audio && !c.Video {
		return nil, ErrCaptureUnavailable
	}

	streamID := "videocall-" + uuid.NewString()
	var tracks []webrtc.TrackLocal

	if c.Audio {
		track, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
			"audio", streamID,
		)
		if err != nil {
			return nil, err
		}
		if c.Silence {
			go feedSilence(ctx, track, opusFrameDuration)
		}
		tracks = append(tracks, track)
	}

	if c.Video {
		track, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
			"video", streamID,
		)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	c.stream = NewLocalStream(streamID, tracks...)
	return c.stream, nil
}
