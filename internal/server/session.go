package server

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"github.com/zeusync/pitchcontrol/pkg/generic"
)

// subscriberBuffer is the number of encoded fields queued per renderer before new ones are dropped.
const subscriberBuffer = 8

// Session is one provider stream: a single ingest writer owns the tracker, any number of renderers
// receive the resulting fields.
type Session struct {
	ID        string
	CreatedAt time.Time

	engine       *pitch.Engine
	band         float64
	writeTimeout time.Duration
	buffers      *generic.Pool[*bytes.Buffer]
	logger       log.Log

	mu           sync.Mutex
	tracker      pitch.Tracker
	frames       int64
	ingest       *websocket.Conn
	subscribers  map[*subscriber]struct{}
	last         []byte
	lastChecksum uint64
	closed       bool
	metrics      SessionMetrics
}

// SessionMetrics counts what happened to the frames of a session.
type SessionMetrics struct {
	Accepted       int64         `json:"accepted"`
	Rejected       int64         `json:"rejected"`
	Broadcasts     int64         `json:"broadcasts"`
	Unchanged      int64         `json:"unchanged"`
	Dropped        int64         `json:"dropped"`
	AvgStepLatency time.Duration `json:"avg_step_latency"`
	LastFrameAt    time.Time     `json:"last_frame_at,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{
		conn: conn,
		send: make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

func newSession(id string, engine *pitch.Engine, band float64, writeTimeout time.Duration, buffers *generic.Pool[*bytes.Buffer], logger log.Log) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		engine:       engine,
		band:         band,
		writeTimeout: writeTimeout,
		buffers:      buffers,
		logger:       logger.With(log.String("session_id", id)),
		tracker:      pitch.NewTracker(),
		subscribers:  make(map[*subscriber]struct{}),
	}
}

// Info returns a snapshot of the session state.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.engine.Params()
	info := SessionInfo{
		ID:          s.ID,
		Length:      p.Length,
		Width:       p.Width,
		Resolution:  p.Resolution,
		Rows:        s.engine.Grid().Rows(),
		Cols:        s.engine.Grid().Cols(),
		Frames:      s.frames,
		Tracked:     s.tracker.Len(),
		Subscribers: len(s.subscribers),
		Metrics:     s.metrics,
	}
	if s.tracker.Started() {
		last := s.tracker.LastFrame()
		info.LastFrame = &last
	}
	return info
}

// Ingest steps the session with frame and broadcasts the field unless it is identical to the
// previous broadcast. A rejected frame leaves the session untouched.
func (s *Session) Ingest(frame pitch.Frame) (IngestReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return IngestReply{}, ErrSessionClosed
	}

	start := time.Now()
	field, next, err := s.engine.Step(s.tracker, frame)
	if err != nil {
		s.metrics.Rejected++
		return IngestReply{}, err
	}
	latency := time.Since(start)

	s.tracker = next
	s.frames++
	s.metrics.Accepted++
	s.metrics.AvgStepLatency = (s.metrics.AvgStepLatency*time.Duration(s.metrics.Accepted-1) + latency) / time.Duration(s.metrics.Accepted)
	s.metrics.LastFrameAt = time.Now()

	msg := newFieldMessage(s.ID, frame.Index, s.engine.Params().Resolution, field, s.band)
	reply := IngestReply{
		Frame:    frame.Index,
		Checksum: msg.Checksum,
		Tracked:  next.Len(),
		Summary:  &msg.Summary,
	}

	if s.last != nil && msg.Checksum == s.lastChecksum {
		s.metrics.Unchanged++
		return reply, nil
	}

	payload, err := s.encode(msg)
	if err != nil {
		return IngestReply{}, err
	}
	s.last = payload
	s.lastChecksum = msg.Checksum
	s.broadcast(payload)
	s.metrics.Broadcasts++
	reply.Broadcast = true

	return reply, nil
}

func (s *Session) encode(msg FieldMessage) ([]byte, error) {
	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	if err := msgpack.NewEncoder(buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("encode field message: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// broadcast must be called with mu held.
func (s *Session) broadcast(payload []byte) {
	for sub := range s.subscribers {
		select {
		case sub.send <- payload:
		default:
			s.metrics.Dropped++
			s.logger.Warn("Subscriber lagging, field dropped",
				log.String("remote_addr", sub.conn.RemoteAddr().String()))
		}
	}
}

// reject counts a frame that never reached the engine.
func (s *Session) reject() {
	s.mu.Lock()
	s.metrics.Rejected++
	s.mu.Unlock()
}

// attachIngest claims the single ingest slot.
func (s *Session) attachIngest(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.ingest != nil {
		return ErrIngestBusy
	}
	s.ingest = conn
	return nil
}

func (s *Session) detachIngest(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ingest == conn {
		s.ingest = nil
	}
}

// ingestBusy reports whether a provider is connected.
func (s *Session) ingestBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingest != nil
}

// subscribe registers sub and queues the latest field so late renderers start with a picture.
func (s *Session) subscribe(sub *subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.subscribers[sub] = struct{}{}
	if s.last != nil {
		sub.send <- s.last
	}
	return nil
}

func (s *Session) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subscribers, sub)
	s.mu.Unlock()

	sub.close()
}

// close disconnects the provider and every renderer, telling both the session went away.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	ingest := s.ingest
	s.ingest = nil
	for sub := range s.subscribers {
		sub.close()
		delete(s.subscribers, sub)
	}
	s.mu.Unlock()

	if ingest != nil {
		_ = ingest.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
			time.Now().Add(s.writeTimeout))
		_ = ingest.Close()
	}
}
