package models

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidRef is returned when a survey reference cannot be parsed.
var ErrInvalidRef = errors.New("invalid survey reference")

// RefKind names the identity scheme a SurveyRef matches on.
type RefKind int

const (
	// RefGenerated matches the store-generated _id.
	RefGenerated RefKind = iota + 1
	// RefNatural matches the caller-chosen survey_number.
	RefNatural
)

func (k RefKind) String() string {
	switch k {
	case RefGenerated:
		return "id"
	case RefNatural:
		return "number"
	default:
		return "unknown"
	}
}

// SurveyRef identifies a survey either by generated id or by natural key.
// Exactly one of the two is set; the zero value refers to nothing.
type SurveyRef struct {
	kind RefKind
	id   primitive.ObjectID
	code string
}

func GeneratedRef(id primitive.ObjectID) SurveyRef {
	return SurveyRef{kind: RefGenerated, id: id}
}

func NaturalRef(code string) SurveyRef {
	return SurveyRef{kind: RefNatural, code: code}
}

// ParseGeneratedRef parses a hex ObjectID.
func ParseGeneratedRef(hex string) (SurveyRef, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return SurveyRef{}, fmt.Errorf("%w: %q is not an object id", ErrInvalidRef, hex)
	}
	return GeneratedRef(id), nil
}

// ParseNaturalRef trims and checks a survey number.
func ParseNaturalRef(code string) (SurveyRef, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return SurveyRef{}, fmt.Errorf("%w: empty survey number", ErrInvalidRef)
	}
	return NaturalRef(code), nil
}

// ParseSurveyRef parses a path segment. by selects the scheme ("id" or
// "number"); when empty a 24 character hex string is taken as a generated id
// and anything else as a survey number.
func ParseSurveyRef(raw, by string) (SurveyRef, error) {
	switch strings.ToLower(strings.TrimSpace(by)) {
	case "id", "_id":
		return ParseGeneratedRef(raw)
	case "number", "survey_number", "code":
		return ParseNaturalRef(raw)
	case "":
		if primitive.IsValidObjectID(strings.TrimSpace(raw)) {
			return ParseGeneratedRef(raw)
		}
		return ParseNaturalRef(raw)
	default:
		return SurveyRef{}, fmt.Errorf("%w: unknown scheme %q", ErrInvalidRef, by)
	}
}

func (r SurveyRef) Kind() RefKind { return r.kind }

// ID returns the generated id; ok is false for natural refs.
func (r SurveyRef) ID() (primitive.ObjectID, bool) {
	return r.id, r.kind == RefGenerated
}

// Number returns the survey number; ok is false for generated refs.
func (r SurveyRef) Number() (string, bool) {
	return r.code, r.kind == RefNatural
}

func (r SurveyRef) IsZero() bool { return r.kind == 0 }

func (r SurveyRef) String() string {
	switch r.kind {
	case RefGenerated:
		return "id:" + r.id.Hex()
	case RefNatural:
		return "number:" + r.code
	default:
		return "<none>"
	}
}
