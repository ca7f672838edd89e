package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
)

// rendererReadLimit caps renderer input, which is only ever control frames.
const rendererReadLimit = 512

// handleIngest reads JSON frames from a provider and answers each with an IngestReply.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromQuery(w, r)
	if !ok {
		return
	}
	if session.ingestBusy() {
		http.Error(w, ErrIngestBusy.Error(), http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Ingest upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessageSize)
	if err := session.attachIngest(conn); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		_ = conn.Close()
		return
	}

	logger := session.logger.With(log.String("remote_addr", conn.RemoteAddr().String()))
	logger.Info("Provider connected")

	defer func() {
		session.detachIngest(conn)
		_ = conn.Close()
		logger.Info("Provider disconnected")
	}()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				session.reject()
				logger.Warn("Ingest message too large", log.Int64("limit", s.cfg.MaxMessageSize))
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Ingest read failed", log.Error(err))
			}
			return
		}

		reply := s.ingestFrame(session, p, logger)

		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("Ingest reply failed", log.Error(err))
			return
		}
	}
}

func (s *Server) ingestFrame(session *Session, p []byte, logger log.Log) IngestReply {
	var msg FrameMessage
	if err := json.Unmarshal(p, &msg); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		session.reject()
		logger.Warn("Frame rejected", log.Error(err))
		return IngestReply{Error: err.Error()}
	}

	frame, err := msg.ToFrame()
	if err != nil {
		session.reject()
	} else {
		var reply IngestReply
		reply, err = session.Ingest(frame)
		if err == nil {
			return reply
		}
	}

	logger.Warn("Frame rejected", log.Int64("frame", msg.Index), log.Error(err))
	return IngestReply{Frame: msg.Index, Error: err.Error()}
}

// handleField streams binary msgpack fields to a renderer.
func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromQuery(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Field upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(rendererReadLimit)

	sub := newSubscriber(conn)
	if err := session.subscribe(sub); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()),
			time.Now().Add(s.cfg.WriteTimeout))
		_ = conn.Close()
		return
	}

	logger := session.logger.With(log.String("remote_addr", conn.RemoteAddr().String()))
	logger.Info("Renderer connected")

	go s.readUntilClosed(conn, sub)

	defer func() {
		session.unsubscribe(sub)
		_ = conn.Close()
		logger.Info("Renderer disconnected")
	}()

	for {
		select {
		case payload := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				logger.Warn("Field write failed", log.Error(err))
				return
			}
		case <-sub.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(s.cfg.WriteTimeout))
			return
		}
	}
}

// readUntilClosed drains renderer input so close frames are processed.
func (s *Server) readUntilClosed(conn *websocket.Conn, sub *subscriber) {
	defer sub.close()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *Server) sessionFromQuery(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session, err := s.Session(r.URL.Query().Get("session"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return nil, false
	}
	return session, true
}
