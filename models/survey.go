package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Survey is a named, ordered collection of questions.
type Survey struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SurveyNumber string             `bson:"survey_number,omitempty" json:"survey_number,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Title        string             `bson:"title,omitempty" json:"title,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Questions    []Question         `bson:"questions" json:"questions"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Ref returns the reference under which the survey was created: its number
// when it has one, its generated id otherwise.
func (s Survey) Ref() SurveyRef {
	if s.SurveyNumber != "" {
		return NaturalRef(s.SurveyNumber)
	}
	return GeneratedRef(s.ID)
}
