package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is one device's stepwise progression through a survey.
// CurrentQuestion only grows, Completed only flips false to true.
type Session struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeviceID        string             `bson:"device_id" json:"device_id"`
	SurveyCode      string             `bson:"survey_code" json:"survey_code"`
	CurrentQuestion int                `bson:"current_question" json:"current_question"`
	Completed       bool               `bson:"completed" json:"completed"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// SessionAnswer is an answer recorded against a session. QuestionIndex is the
// cursor value before the increment.
type SessionAnswer struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID     string             `bson:"session_id" json:"session_id"`
	DeviceID      string             `bson:"device_id" json:"device_id"`
	Answer        string             `bson:"answer" json:"answer"`
	QuestionIndex int                `bson:"question_index" json:"question_index"`
	AnsweredAt    time.Time          `bson:"answered_at" json:"answered_at"`
}

type ReportKind string

const (
	ReportQuestion ReportKind = "question"
	ReportSurvey   ReportKind = "survey"
)

func (k ReportKind) Valid() bool {
	return k == ReportQuestion || k == ReportSurvey
}

// Report is a free-text comment about a question or a whole survey.
type Report struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Comment   string             `bson:"comment" json:"comment"`
	Type      ReportKind         `bson:"type" json:"type"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
