package media

import (
	"context"
	"time"

	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

const opusFrameDuration = 20 * time.Millisecond

// opusSilence is a single Opus frame (TOC 0xf8, CELT fullband 20 ms) that
// decodes to silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

type sampleWriter interface {
	WriteSample(pionmedia.Sample) error
}

// feedSilence writes one silence frame per interval until ctx ends. Write
// errors are ignored.
func feedSilence(ctx context.Context, w sampleWriter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.WriteSample(pionmedia.Sample{Data: opusSilence, Duration: interval})
		}
	}
}
