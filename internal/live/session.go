// Package live runs streaming transcription sessions against the external
// service's websocket endpoint.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/snarg/scribed/internal/metrics"
	"github.com/snarg/scribed/internal/srt"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// ChunkSource produces fixed-duration audio chunks. NextChunk blocks until a
// full chunk is captured and returns io.EOF when the source is exhausted.
type ChunkSource interface {
	NextChunk(ctx context.Context) ([]byte, error)
}

// Endpoint converts the transcription service base URL into the websocket
// streaming endpoint URL.
func Endpoint(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/analyze/ws/transcribe"
}

// Options configure a streaming session.
type Options struct {
	// URL is the full websocket endpoint (see Endpoint).
	URL string
	// Language is sent as the first control frame.
	Language string
	// UserID is sent as the second control frame. A session without a user
	// identity is rejected before any data is sent.
	UserID string
	Source ChunkSource
	Dialer *websocket.Dialer
	Logger zerolog.Logger
}

// serverMessage is one inbound control frame from the streaming service.
type serverMessage struct {
	Segments []srt.Segment `json:"segments"`
	Error    string        `json:"error"`
}

// Session captures chunks from a source and streams them as binary frames,
// accumulating the segments the service sends back. The transcript is append
// only and keeps arrival order; nothing reorders or merges segments.
type Session struct {
	opts   Options
	log    zerolog.Logger
	cancel context.CancelFunc

	mu       sync.Mutex
	cond     *sync.Cond
	state    State
	paused   bool
	segments []srt.Segment
	lastErr  error

	conn        *websocket.Conn
	captureDone chan struct{}
	readDone    chan struct{}
}

// NewSession creates an idle session. Start opens the connection.
func NewSession(opts Options) *Session {
	s := &Session{
		opts:        opts,
		log:         opts.Logger.With().Str("component", "live").Logger(),
		state:       StateIdle,
		captureDone: make(chan struct{}),
		readDone:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start dials the streaming endpoint, sends the two control frames
// (language, user id) and begins the capture and read loops. It fails closed
// before dialing when no user identity is present.
func (s *Session) Start(ctx context.Context) error {
	if s.opts.UserID == "" {
		return errors.New("live session requires a signed-in user")
	}
	if s.opts.Source == nil {
		return errors.New("live session requires a chunk source")
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("cannot start session in state %s", s.state)
	}
	s.mu.Unlock()

	dialer := s.opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, s.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial streaming endpoint: %w", err)
	}

	lang := s.opts.Language
	if lang == "" {
		lang = "en"
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(lang)); err != nil {
		conn.Close()
		return fmt.Errorf("send language: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(s.opts.UserID)); err != nil {
		conn.Close()
		return fmt.Errorf("send user id: %w", err)
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.mu.Lock()
	s.conn = conn
	s.state = StateCapturing
	s.mu.Unlock()

	s.log.Info().Str("language", lang).Msg("live session started")

	go s.readLoop()
	go s.captureLoop(ctx)
	return nil
}

// captureLoop pulls one chunk at a time from the source. At most one chunk
// is in flight; a chunk whose capture completes after a stop was requested
// is discarded, never transmitted.
func (s *Session) captureLoop(ctx context.Context) {
	defer close(s.captureDone)

	for {
		s.mu.Lock()
		for s.paused && s.state == StateCapturing {
			s.cond.Wait()
		}
		if s.state != StateCapturing {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		chunk, err := s.opts.Source.NextChunk(ctx)
		if err != nil {
			s.finishCapture(err)
			return
		}
		if len(chunk) == 0 {
			continue
		}

		// The chunk is finalized; only transmit if still capturing.
		s.mu.Lock()
		if s.state != StateCapturing {
			s.mu.Unlock()
			s.log.Debug().Int("bytes", len(chunk)).Msg("discarding chunk captured after stop")
			return
		}
		conn := s.conn
		s.mu.Unlock()

		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.finishCapture(fmt.Errorf("send chunk: %w", err))
			return
		}
		metrics.LiveChunksSentTotal.Inc()
		s.log.Debug().Int("bytes", len(chunk)).Msg("chunk sent")
	}
}

// finishCapture records why capture ended and leaves the capture loop.
// Source exhaustion and cancellation are normal endings, not errors.
func (s *Session) finishCapture(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if s.state == StateCapturing {
		s.state = StateStopping
		s.cond.Broadcast()
	}
	if err != nil && !errors.Is(err, io.EOF) {
		s.lastErr = err
		s.log.Error().Err(err).Msg("capture ended")
	}
}

// readLoop appends inbound segments in arrival order. An error field in a
// frame surfaces as the session error but does not change recording state.
func (s *Session) readLoop() {
	defer close(s.readDone)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.state == StateCapturing {
				// Transport failure mid-session: flag it and stop capturing.
				s.lastErr = fmt.Errorf("streaming connection: %w", err)
				s.state = StateStopping
				s.cond.Broadcast()
				s.log.Error().Err(err).Msg("streaming connection lost")
			}
			s.mu.Unlock()
			if s.cancel != nil {
				s.cancel()
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("unparseable frame from streaming service")
			continue
		}

		s.mu.Lock()
		if len(msg.Segments) > 0 {
			s.segments = append(s.segments, msg.Segments...)
			metrics.LiveSegmentsTotal.Add(float64(len(msg.Segments)))
		}
		if msg.Error != "" {
			s.lastErr = errors.New(msg.Error)
		}
		s.mu.Unlock()
	}
}

// Pause halts chunk capture without closing the connection.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCapturing {
		s.paused = true
	}
}

// Resume restarts the capture loop on the same source and connection.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCapturing && s.paused {
		s.paused = false
		s.cond.Broadcast()
	}
}

// Stop requests a stop, waits for the in-flight chunk to be discarded, and
// closes the connection. After Stop returns the session is Stopped and no
// further frames have been or will be sent.
func (s *Session) Stop() {
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateStopped:
		s.mu.Unlock()
		return
	case StateCapturing:
		s.state = StateStopping
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	<-s.captureDone

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
	<-s.readDone

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.log.Info().Int("segments", len(s.Transcript())).Msg("live session stopped")
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Paused reports whether capture is paused.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Err returns the most recent session error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Transcript returns a copy of the accumulated segments in arrival order.
func (s *Session) Transcript() []srt.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]srt.Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Lines returns the transcript in the display-line format.
func (s *Session) Lines() []string {
	segs := s.Transcript()
	lines := make([]string, len(segs))
	for i, seg := range segs {
		lines[i] = srt.Line(seg)
	}
	return lines
}

// SRT exports the transcript as a SubRip document.
func (s *Session) SRT() string {
	return srt.FromLines(s.Lines())
}

// Clear empties the transcript and clears the session error.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
	s.lastErr = nil
}
