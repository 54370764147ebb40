package live

import (
	"context"
	"io"
	"time"
)

// ReaderChunker slices a constant-rate audio stream into fixed-duration
// chunks. It paces reads by wall clock so a pre-recorded file streams at
// roughly real time instead of arriving all at once.
type ReaderChunker struct {
	r         io.Reader
	chunkSize int
	interval  time.Duration
	realtime  bool
}

// NewReaderChunker wraps a reader producing bytesPerSecond of audio. Each
// chunk covers chunkDur of audio. When realtime is set, NextChunk waits out
// the chunk interval before returning.
func NewReaderChunker(r io.Reader, bytesPerSecond int, chunkDur time.Duration, realtime bool) *ReaderChunker {
	size := int(float64(bytesPerSecond) * chunkDur.Seconds())
	if size < 1 {
		size = 1
	}
	return &ReaderChunker{r: r, chunkSize: size, interval: chunkDur, realtime: realtime}
}

// NextChunk returns the next chunk of the stream. The final chunk may be
// shorter than the configured duration; after it, NextChunk returns io.EOF.
func (c *ReaderChunker) NextChunk(ctx context.Context) ([]byte, error) {
	if c.realtime {
		select {
		case <-time.After(c.interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, c.chunkSize)
	n, err := io.ReadFull(c.r, buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return nil, err
}
