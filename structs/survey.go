package structs

import (
	"errors"
	"strings"

	"surveyhub/models"
)

type CreateSurveyRequest struct {
	SurveyNumber string            `json:"survey_number"`
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Questions    []models.Question `json:"questions"`
}

type AddQuestionRequest struct {
	QuestionText string   `json:"question_text" binding:"required"`
	QuestionType string   `json:"question_type"`
	MCQOptions   []string `json:"mcq_options"`
}

func (r AddQuestionRequest) Question() models.Question {
	return models.Question{
		Text:    r.QuestionText,
		Kind:    models.QuestionKind(r.QuestionType),
		Options: r.MCQOptions,
	}
}

type UpdateQuestionsRequest struct {
	Questions []models.Question `json:"questions" binding:"required"`
}

type UpdateSurveyNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// RemoveQuestionRequest matches a question by its exact text.
type RemoveQuestionRequest struct {
	QuestionText string `json:"question_text" binding:"required"`
}

type UpdateSurveyRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Questions   *[]models.Question `json:"questions"`
}

// SurveyLocator names a survey in a request body by exactly one of its
// identities.
type SurveyLocator struct {
	SurveyNumber string `json:"survey_number"`
	SurveyID     string `json:"survey_id"`
}

var errLocator = errors.New("exactly one of survey_number or survey_id is required")

// Ref converts the locator into a survey reference.
func (l SurveyLocator) Ref() (models.SurveyRef, error) {
	number := strings.TrimSpace(l.SurveyNumber)
	id := strings.TrimSpace(l.SurveyID)
	switch {
	case number != "" && id != "", number == "" && id == "":
		return models.SurveyRef{}, errLocator
	case id != "":
		return models.ParseGeneratedRef(id)
	default:
		return models.ParseNaturalRef(number)
	}
}

type SurveyAccessRequest struct {
	SurveyLocator
	Username string `json:"username" binding:"required"`
}

type SubmitSurveyRequest struct {
	SurveyLocator
	Username string          `json:"username" binding:"required"`
	Answers  []models.Answer `json:"answers"`
}
