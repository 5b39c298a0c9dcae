package services

import (
	"errors"

	"surveyhub/models"
)

var (
	// ErrNotFound means the referenced survey or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrQuestionNotFound means the survey exists but no question matched.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrConflict means a caller-supplied survey number is already taken.
	ErrConflict = errors.New("already exists")
	// ErrValidation wraps payload problems found after binding.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidID is returned for session ids that are not object ids.
	ErrInvalidID = errors.New("invalid id")
	// ErrRateLimited is returned when a session files reports too quickly.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidRef is returned for survey references that cannot be used.
	ErrInvalidRef = models.ErrInvalidRef
)
