package media

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCapturer_BuildsTracksOnce(t *testing.T) {
	c := &StaticCapturer{Audio: true, Video: true}

	first, err := c.Capture(context.Background())
	require.NoError(t, err)
	second, err := c.Capture(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	tracks := first.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, webrtc.RTPCodecTypeAudio, tracks[0].Kind())
	assert.Equal(t, webrtc.RTPCodecTypeVideo, tracks[1].Kind())
	for _, tr := range tracks {
		assert.Equal(t, first.ID(), tr.StreamID())
	}
}

func TestStaticCapturer_AudioOnly(t *testing.T) {
	c := &StaticCapturer{Audio: true}

	s, err := c.Capture(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Tracks(), 1)
	assert.Equal(t, webrtc.RTPCodecTypeAudio, s.Tracks()[0].Kind())
}

func TestStaticCapturer_NothingEnabled(t *testing.T) {
	_, err := (&StaticCapturer{}).Capture(context.Background())
	assert.ErrorIs(t, err, ErrCaptureUnavailable)
}

func TestStaticCapturer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&StaticCapturer{Audio: true}).Capture(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStream_TracksIsACopy(t *testing.T) {
	c := &StaticCapturer{Video: true}
	s, err := c.Capture(context.Background())
	require.NoError(t, err)

	tracks := s.Tracks()
	tracks[0] = nil
	assert.NotNil(t, s.Tracks()[0])
}

func TestRecordingSink_WriterFor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rec")
	s := &RecordingSink{Dir: dir}

	w, path, err := s.writerFor(webrtc.MimeTypeVP8, "stream/video")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stream_video.ivf"), path)
	require.NoError(t, w.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)

	w, path, err = s.writerFor("audio/OPUS", "audio")
	require.NoError(t, err)
	assert.Equal(t, ".ogg", filepath.Ext(path))
	require.NoError(t, w.Close())

	_, _, err = s.writerFor(webrtc.MimeTypeH264, "video")
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

type countingWriter struct {
	mu      sync.Mutex
	samples []pionmedia.Sample
}

func (w *countingWriter) WriteSample(s pionmedia.Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	return nil
}

func (w *countingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

func TestFeedSilence_WritesFramesUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &countingWriter{}
	done := make(chan struct{})
	go func() {
		feedSilence(ctx, w, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return w.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feedSilence did not return after cancel")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, opusSilence, w.samples[0].Data)
	assert.Equal(t, 5*time.Millisecond, w.samples[0].Duration)
}

func TestStaticCapturer_SilenceKeepsCapturing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &StaticCapturer{Audio: true, Silence: true}
	first, err := c.Capture(ctx)
	require.NoError(t, err)
	second, err := c.Capture(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
