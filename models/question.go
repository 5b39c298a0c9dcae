package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// QuestionKind is the answer format of a question.
type QuestionKind string

const (
	QuestionOpen           QuestionKind = "qa"
	QuestionMultipleChoice QuestionKind = "mcq"
	QuestionRating         QuestionKind = "rating"
)

func (k QuestionKind) Valid() bool {
	switch k {
	case QuestionOpen, QuestionMultipleChoice, QuestionRating:
		return true
	}
	return false
}

// Question is one survey item. Only multiple-choice questions carry options.
type Question struct {
	Text    string       `bson:"question_text" json:"question_text"`
	Kind    QuestionKind `bson:"question_type" json:"question_type"`
	Options []string     `bson:"mcq_options,omitempty" json:"mcq_options,omitempty"`
}

// Normalize trims the question, defaults an empty kind to open answer and
// drops options from kinds that do not use them.
func (q Question) Normalize() (Question, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return q, errors.New("question_text is required")
	}
	if q.Kind == "" {
		q.Kind = QuestionOpen
	}
	if !q.Kind.Valid() {
		return q, fmt.Errorf("unknown question_type %q", q.Kind)
	}
	if q.Kind != QuestionMultipleChoice {
		q.Options = nil
		return q, nil
	}
	opts := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	if len(opts) == 0 {
		return q, errors.New("mcq questions need at least one option")
	}
	q.Options = opts
	return q, nil
}

// NormalizeQuestions normalizes every question, reporting the first bad index.
func NormalizeQuestions(qs []Question) ([]Question, error) {
	out := make([]Question, 0, len(qs))
	for i, q := range qs {
		n, err := q.Normalize()
		if err != nil {
			return nil, fmt.Errorf("questions[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// UnmarshalJSON accepts the legacy bare-string form as an open question.
func (q *Question) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*q = Question{Text: text, Kind: QuestionOpen}
		return nil
	}
	type alias Question
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*q = Question(a)
	return nil
}

// UnmarshalBSONValue reads documents written by older revisions that stored
// questions as plain strings.
func (q *Question) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.String:
		text, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
		if !ok {
			return errors.New("malformed legacy question string")
		}
		*q = Question{Text: text, Kind: QuestionOpen}
		return nil
	case bsontype.EmbeddedDocument:
		type alias Question
		var a alias
		if err := bson.Unmarshal(data, &a); err != nil {
			return err
		}
		*q = Question(a)
		if q.Kind == "" {
			q.Kind = QuestionOpen
		}
		return nil
	default:
		return fmt.Errorf("cannot decode question from bson %s", t)
	}
}
