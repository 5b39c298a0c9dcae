package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Answer is one free-form answer entry, usually {"<question text>": "<value>"}.
type Answer map[string]interface{}

// Response is a flat survey submission. Both link fields are copied from the
// resolved survey at submission time.
type Response struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SurveyID     primitive.ObjectID `bson:"survey_id" json:"survey_id"`
	SurveyNumber string             `bson:"survey_number,omitempty" json:"survey_number,omitempty"`
	Username     string             `bson:"username" json:"username"`
	Answers      []Answer           `bson:"answers" json:"answers"`
	SubmittedAt  time.Time          `bson:"submitted_at" json:"submitted_at"`
}
