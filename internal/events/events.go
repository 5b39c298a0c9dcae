package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published for voice sessions.
const (
	SessionStarted  = "session.started"
	AnswerRecorded  = "answer.recorded"
	SessionFinished = "session.finished"
	ReportFiled     = "report.filed"
)

// Event is a session state change published to the event stream.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

type SessionStartedPayload struct {
	DeviceID   string `json:"deviceId"`
	SurveyCode string `json:"surveyCode"`
}

type AnswerRecordedPayload struct {
	DeviceID      string `json:"deviceId"`
	QuestionIndex int    `json:"questionIndex"`
}

type ReportFiledPayload struct {
	Kind string `json:"kind"`
}

// NewEvent creates a new event with an id and timestamp
func NewEvent(eventType, sessionID string, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Payload:   raw,
		Timestamp: time.Now().Unix(),
	}, nil
}

// MarshalEvent marshals an event to the JSON string stored in the stream
func MarshalEvent(event *Event) (string, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalEvent is the inverse of MarshalEvent
func UnmarshalEvent(data string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, err
	}
	return &event, nil
}
