package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"surveyhub/db"
	"surveyhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateSurveyInput describes a new survey. SurveyNumber is optional; when set
// it becomes the survey's natural key and must be unique.
type CreateSurveyInput struct {
	SurveyNumber string
	Name         string
	Title        string
	Description  string
	Questions    []models.Question
}

// SurveyPatch overwrites the editable survey fields that are non-nil.
type SurveyPatch struct {
	Title       *string
	Description *string
	Questions   *[]models.Question
}

// SurveyService stores surveys and their questions in the surveys collection.
type SurveyService struct {
	surveys *mongo.Collection
	opts    Options
}

func NewSurveyService(store *db.Store, opts Options) *SurveyService {
	return &SurveyService{surveys: store.Surveys(), opts: opts.withDefaults()}
}

// surveyFilter matches a survey by the scheme the ref was built with.
func surveyFilter(ref models.SurveyRef) (bson.M, error) {
	switch ref.Kind() {
	case models.RefGenerated:
		id, _ := ref.ID()
		return bson.M{"_id": id}, nil
	case models.RefNatural:
		code, _ := ref.Number()
		return bson.M{"survey_number": code}, nil
	default:
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidRef)
	}
}

// Create stores a survey with the given (usually empty) question list.
func (s *SurveyService) Create(ctx context.Context, in CreateSurveyInput) (*models.Survey, error) {
	questions, err := models.NormalizeQuestions(in.Questions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.opts.Now()
	survey := models.Survey{
		ID:           primitive.NewObjectID(),
		SurveyNumber: strings.TrimSpace(in.SurveyNumber),
		Name:         strings.TrimSpace(in.Name),
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Questions:    questions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	if _, err := s.surveys.InsertOne(ctx, survey); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("survey %q: %w", survey.SurveyNumber, ErrConflict)
		}
		return nil, fmt.Errorf("insert survey: %w", err)
	}
	s.opts.Logger.Info("survey created", "survey_id", survey.ID.Hex(), "survey_number", survey.SurveyNumber)
	return &survey, nil
}

// GetSurvey looks a survey up by id or number.
func (s *SurveyService) GetSurvey(ctx context.Context, ref models.SurveyRef) (*models.Survey, error) {
	filter, err := surveyFilter(ref)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	var survey models.Survey
	if err := s.surveys.FindOne(ctx, filter).Decode(&survey); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("survey %s: %w", ref, ErrNotFound)
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}
	if survey.Questions == nil {
		survey.Questions = []models.Question{}
	}
	return &survey, nil
}

// ListSurveys returns up to limit surveys in store order.
func (s *SurveyService) ListSurveys(ctx context.Context, limit int64) ([]models.Survey, error) {
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	cursor, err := s.surveys.Find(ctx, bson.M{}, options.Find().SetLimit(s.opts.limit(limit)))
	if err != nil {
		return nil, fmt.Errorf("find surveys: %w", err)
	}
	defer cursor.Close(ctx)

	surveys := []models.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, fmt.Errorf("decode surveys: %w", err)
	}
	for i := range surveys {
		if surveys[i].Questions == nil {
			surveys[i].Questions = []models.Question{}
		}
	}
	return surveys, nil
}

// AppendQuestion pushes one question to the end of the survey.
func (s *SurveyService) AppendQuestion(ctx context.Context, ref models.SurveyRef, q models.Question) error {
	q, err := q.Normalize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.updateOne(ctx, ref, bson.M{
		"$push": bson.M{"questions": q},
		"$set":  bson.M{"updated_at": s.opts.Now()},
	})
}

// ReplaceQuestions overwrites the whole question list.
func (s *SurveyService) ReplaceQuestions(ctx context.Context, ref models.SurveyRef, qs []models.Question) error {
	questions, err := models.NormalizeQuestions(qs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.updateOne(ctx, ref, bson.M{
		"$set": bson.M{"questions": questions, "updated_at": s.opts.Now()},
	})
}

// RenameSurvey overwrites the display name.
func (s *SurveyService) RenameSurvey(ctx context.Context, ref models.SurveyRef, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return s.updateOne(ctx, ref, bson.M{
		"$set": bson.M{"name": name, "updated_at": s.opts.Now()},
	})
}

// RemoveQuestion pulls every question whose text equals text. It returns
// ErrNotFound when the survey is missing and ErrQuestionNotFound when the
// survey exists but holds no such question.
func (s *SurveyService) RemoveQuestion(ctx context.Context, ref models.SurveyRef, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: question_text is required", ErrValidation)
	}
	filter, err := surveyFilter(ref)
	if err != nil {
		return err
	}
	filter["questions.question_text"] = text

	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	res, err := s.surveys.UpdateOne(ctx, filter, bson.M{
		"$pull": bson.M{"questions": bson.M{"question_text": text}},
		"$set":  bson.M{"updated_at": s.opts.Now()},
	})
	if err != nil {
		return fmt.Errorf("pull question: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: tell a missing survey apart from a missing question.
	delete(filter, "questions.question_text")
	err = s.surveys.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch {
	case err == nil:
		return fmt.Errorf("survey %s, question %q: %w", ref, text, ErrQuestionNotFound)
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("survey %s: %w", ref, ErrNotFound)
	default:
		return fmt.Errorf("find survey: %w", err)
	}
}

// UpdateSurvey overwrites the patched fields and returns the new document.
func (s *SurveyService) UpdateSurvey(ctx context.Context, ref models.SurveyRef, patch SurveyPatch) (*models.Survey, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		set["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Questions != nil {
		questions, err := models.NormalizeQuestions(*patch.Questions)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		set["questions"] = questions
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	set["updated_at"] = s.opts.Now()

	filter, err := surveyFilter(ref)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	var updated models.Survey
	err = s.surveys.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("survey %s: %w", ref, ErrNotFound)
		}
		return nil, fmt.Errorf("update survey: %w", err)
	}
	return &updated, nil
}

// DeleteSurvey removes the survey document. Its responses are left in place.
func (s *SurveyService) DeleteSurvey(ctx context.Context, ref models.SurveyRef) error {
	filter, err := surveyFilter(ref)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	res, err := s.surveys.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("survey %s: %w", ref, ErrNotFound)
	}
	s.opts.Logger.Info("survey deleted", "survey", ref.String())
	return nil
}

// updateOne applies update to the referenced survey. A match without a
// modification still counts as success.
func (s *SurveyService) updateOne(ctx context.Context, ref models.SurveyRef, update bson.M) error {
	filter, err := surveyFilter(ref)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	res, err := s.surveys.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("survey %s: %w", ref, ErrNotFound)
	}
	return nil
}
