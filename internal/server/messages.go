package server

import (
	"fmt"

	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

// SessionRequest optionally overrides the surface of a new session.
// Zero fields keep the server defaults.
type SessionRequest struct {
	Length     float64 `json:"length,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Resolution float64 `json:"resolution,omitempty"`
}

// SessionInfo describes a session.
type SessionInfo struct {
	ID          string         `json:"id"`
	Length      float64        `json:"length"`
	Width       float64        `json:"width"`
	Resolution  float64        `json:"resolution"`
	Rows        int            `json:"rows"`
	Cols        int            `json:"cols"`
	Frames      int64          `json:"frames"`
	LastFrame   *int64         `json:"last_frame,omitempty"`
	Tracked     int            `json:"tracked"`
	Subscribers int            `json:"subscribers"`
	Metrics     SessionMetrics `json:"metrics"`
}

// FrameMessage is one tracking frame as sent by a provider on /ws/ingest.
type FrameMessage struct {
	Index  int64          `json:"index"`
	Agents []AgentMessage `json:"agents"`
}

type AgentMessage struct {
	ID   string  `json:"id"`
	Team string  `json:"team"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// ToFrame converts the wire message into a pitch frame.
func (m FrameMessage) ToFrame() (pitch.Frame, error) {
	frame := pitch.Frame{Index: m.Index, Agents: make([]pitch.AgentSample, 0, len(m.Agents))}
	for _, a := range m.Agents {
		if a.ID == "" {
			return pitch.Frame{}, fmt.Errorf("%w: agent without id", ErrInvalidFrame)
		}
		team, err := pitch.ParseTeam(a.Team)
		if err != nil {
			return pitch.Frame{}, fmt.Errorf("%w: agent %s: %w", ErrInvalidFrame, a.ID, err)
		}
		frame.Agents = append(frame.Agents, pitch.AgentSample{
			ID:       pitch.AgentID(a.ID),
			Team:     team,
			Position: physics.V2(a.X, a.Y),
		})
	}
	return frame, nil
}

// IngestReply answers every frame received on /ws/ingest.
// Error is set when the frame was rejected; the session's history is then unchanged.
type IngestReply struct {
	Frame     int64          `json:"frame"`
	Checksum  uint64         `json:"checksum,omitempty"`
	Broadcast bool           `json:"broadcast"`
	Tracked   int            `json:"tracked"`
	Summary   *pitch.Summary `json:"summary,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// FieldMessage is the binary msgpack payload pushed to /ws/field subscribers.
type FieldMessage struct {
	Session    string        `msgpack:"session"`
	Frame      int64         `msgpack:"frame"`
	Rows       int           `msgpack:"rows"`
	Cols       int           `msgpack:"cols"`
	Resolution float64       `msgpack:"resolution"`
	Values     []float64     `msgpack:"values"`
	Checksum   uint64        `msgpack:"checksum"`
	Summary    pitch.Summary `msgpack:"summary"`
}

func newFieldMessage(session string, frame int64, resolution float64, field *pitch.Field, band float64) FieldMessage {
	return FieldMessage{
		Session:    session,
		Frame:      frame,
		Rows:       field.Rows,
		Cols:       field.Cols,
		Resolution: resolution,
		Values:     field.Values,
		Checksum:   field.Checksum(),
		Summary:    field.Summary(band),
	}
}
