package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

// ErrUnsupportedCodec is returned by RecordingSink for tracks it cannot
// write to disk.
var ErrUnsupportedCodec = errors.New("unsupported codec")

// Sink renders remote media. Consume blocks until the track ends or ctx is
// done.
type Sink interface {
	Consume(ctx context.Context, track *webrtc.TrackRemote) error
}

type rtpWriter interface {
	WriteRTP(*rtp.Packet) error
	Close() error
}

// DiscardSink reads and drops every packet. Reading keeps the receiver's
// buffers and RTCP feedback flowing.
type DiscardSink struct{}

func (DiscardSink) Consume(ctx context.Context, track *webrtc.TrackRemote) error {
	return drain(ctx, track, nil)
}

// RecordingSink writes VP8 video to IVF and Opus audio to Ogg files in Dir.
type RecordingSink struct {
	Dir    string
	Logger *slog.Logger
}

func (s *RecordingSink) Consume(ctx context.Context, track *webrtc.TrackRemote) error {
	w, path, err := s.writerFor(track.Codec().MimeType, track.StreamID()+"-"+track.ID())
	if err != nil {
		return err
	}
	defer w.Close()

	if s.Logger != nil {
		s.Logger.Info("recording remote track", "kind", track.Kind().String(), "path", path)
	}
	return drain(ctx, track, w)
}

func (s *RecordingSink) writerFor(mimeType, name string) (rtpWriter, string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, "", err
	}
	name = sanitize(name)

	switch {
	case strings.EqualFold(mimeType, webrtc.MimeTypeVP8):
		path := filepath.Join(s.Dir, name+".ivf")
		w, err := ivfwriter.New(path)
		return w, path, err
	case strings.EqualFold(mimeType, webrtc.MimeTypeOpus):
		path := filepath.Join(s.Dir, name+".ogg")
		w, err := oggwriter.New(path, 48000, 2)
		return w, path, err
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedCodec, mimeType)
	}
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '{', '}', ' ':
			return '_'
		}
		return r
	}, name)
}

// drain reads packets from src until it ends, handing each to w when set.
func drain(ctx context.Context, src *webrtc.TrackRemote, w rtpWriter) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		pkt, _, err := src.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if w == nil {
			continue
		}
		if err := w.WriteRTP(pkt); err != nil {
			return err
		}
	}
}
