package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"surveyhub/db"
	"surveyhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SurveyResolver finds the survey a response is submitted against.
type SurveyResolver interface {
	GetSurvey(ctx context.Context, ref models.SurveyRef) (*models.Survey, error)
}

// ResponseService records flat survey submissions in survey_responses.
type ResponseService struct {
	responses *mongo.Collection
	surveys   SurveyResolver
	opts      Options
}

func NewResponseService(store *db.Store, surveys SurveyResolver, opts Options) *ResponseService {
	return &ResponseService{responses: store.Responses(), surveys: surveys, opts: opts.withDefaults()}
}

// responseFilter matches responses on the link field of the ref's scheme.
// Submit writes both fields, so either scheme finds the same documents.
func responseFilter(ref models.SurveyRef) (bson.M, error) {
	switch ref.Kind() {
	case models.RefGenerated:
		id, _ := ref.ID()
		return bson.M{"survey_id": id}, nil
	case models.RefNatural:
		code, _ := ref.Number()
		return bson.M{"survey_number": code}, nil
	default:
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidRef)
	}
}

// Access returns the survey a respondent asked to fill in.
func (s *ResponseService) Access(ctx context.Context, ref models.SurveyRef, username string) (*models.Survey, error) {
	survey, err := s.surveys.GetSurvey(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Debug("survey accessed", "survey", ref.String(), "username", username)
	return survey, nil
}

// Submit resolves the survey and stores one response linked to it. Nothing is
// written when the survey is missing. The survey may still be deleted between
// the lookup and the insert; that is not detected.
func (s *ResponseService) Submit(ctx context.Context, ref models.SurveyRef, username string, answers []models.Answer) (primitive.ObjectID, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return primitive.NilObjectID, fmt.Errorf("%w: username is required", ErrValidation)
	}

	survey, err := s.surveys.GetSurvey(ctx, ref)
	if err != nil {
		return primitive.NilObjectID, err
	}

	response := newResponse(survey, username, answers, s.opts.Now())

	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()
	if _, err := s.responses.InsertOne(ctx, response); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert response: %w", err)
	}
	s.opts.Logger.Info("response submitted", "submission_id", response.ID.Hex(), "survey", ref.String())
	return response.ID, nil
}

// newResponse links a submission to the resolved survey. The link fields
// always come from the stored survey, never from the caller's reference.
func newResponse(survey *models.Survey, username string, answers []models.Answer, now time.Time) models.Response {
	if answers == nil {
		answers = []models.Answer{}
	}
	return models.Response{
		ID:           primitive.NewObjectID(),
		SurveyID:     survey.ID,
		SurveyNumber: survey.SurveyNumber,
		Username:     username,
		Answers:      answers,
		SubmittedAt:  now,
	}
}

// List returns up to limit responses for the referenced survey. Responses of a
// deleted survey stay listable.
func (s *ResponseService) List(ctx context.Context, ref models.SurveyRef, limit int64) ([]models.Response, error) {
	filter, err := responseFilter(ref)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	cursor, err := s.responses.Find(ctx, filter, options.Find().SetLimit(s.opts.limit(limit)))
	if err != nil {
		return nil, fmt.Errorf("find responses: %w", err)
	}
	defer cursor.Close(ctx)

	responses := []models.Response{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return responses, nil
}
