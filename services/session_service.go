package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"surveyhub/db"
	"surveyhub/internal/events"
	"surveyhub/internal/ratelimit"
	"surveyhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CompletedMessage is returned instead of a question once a session is done.
const CompletedMessage = "Survey already completed."

// NextQuestion is what a voice session should ask next.
//
// The question text is a placeholder derived from the cursor: the session's
// survey content is not looked up. Placeholder stays true until that is
// decided.
type NextQuestion struct {
	Completed   bool   `json:"completed"`
	Index       int    `json:"question_index"`
	Question    string `json:"question,omitempty"`
	Placeholder bool   `json:"placeholder"`
	Message     string `json:"message,omitempty"`
}

// SessionService drives the stepwise voice flow over sessions, answers and
// reports.
type SessionService struct {
	sessions  *mongo.Collection
	answers   *mongo.Collection
	reports   *mongo.Collection
	publisher events.Publisher
	limiter   ratelimit.Limiter
	opts      Options
}

func NewSessionService(store *db.Store, publisher events.Publisher, limiter ratelimit.Limiter, opts Options) *SessionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &SessionService{
		sessions:  store.Sessions(),
		answers:   store.Answers(),
		reports:   store.Reports(),
		publisher: publisher,
		limiter:   limiter,
		opts:      opts.withDefaults(),
	}
}

func parseSessionID(sessionID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(sessionID))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("session %q: %w", sessionID, ErrInvalidID)
	}
	return id, nil
}

// Start opens a session at question zero.
func (s *SessionService) Start(ctx context.Context, deviceID, surveyCode string) (*models.Session, error) {
	deviceID = strings.TrimSpace(deviceID)
	surveyCode = strings.TrimSpace(surveyCode)
	if deviceID == "" || surveyCode == "" {
		return nil, fmt.Errorf("%w: device_id and survey_code are required", ErrValidation)
	}

	now := s.opts.Now()
	session := models.Session{
		ID:              primitive.NewObjectID(),
		DeviceID:        deviceID,
		SurveyCode:      surveyCode,
		CurrentQuestion: 0,
		Completed:       false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()
	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	s.publish(ctx, events.SessionStarted, session.ID.Hex(), events.SessionStartedPayload{
		DeviceID:   deviceID,
		SurveyCode: surveyCode,
	})
	return &session, nil
}

// Get returns the session.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	var session models.Session
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// SubmitAnswer claims the current cursor value and advances it by one, then
// stores the answer stamped with the claimed index. Resubmitting records the
// next index; there is no deduplication.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, answer string) (*models.SessionAnswer, error) {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	var before models.Session
	err = s.sessions.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"current_question": 1},
			"$set": bson.M{"updated_at": s.opts.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("advance session: %w", err)
	}

	recorded := models.SessionAnswer{
		ID:            primitive.NewObjectID(),
		SessionID:     id.Hex(),
		DeviceID:      before.DeviceID,
		Answer:        answer,
		QuestionIndex: before.CurrentQuestion,
		AnsweredAt:    s.opts.Now(),
	}
	if _, err := s.answers.InsertOne(ctx, recorded); err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}

	s.publish(ctx, events.AnswerRecorded, id.Hex(), events.AnswerRecordedPayload{
		DeviceID:      before.DeviceID,
		QuestionIndex: before.CurrentQuestion,
	})
	return &recorded, nil
}

// NextQuestion reports the question at the session cursor, or the completion
// marker once the session is finished.
func (s *SessionService) NextQuestion(ctx context.Context, sessionID string) (*NextQuestion, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return &NextQuestion{Completed: true, Index: session.CurrentQuestion, Message: CompletedMessage}, nil
	}
	return &NextQuestion{
		Index:       session.CurrentQuestion,
		Question:    fmt.Sprintf("Question %d: Sample question text.", session.CurrentQuestion+1),
		Placeholder: true,
	}, nil
}

// Finish marks the session completed. Finishing twice is not an error.
func (s *SessionService) Finish(ctx context.Context, sessionID string) error {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()

	res, err := s.sessions.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"completed": true, "updated_at": s.opts.Now()},
	})
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	s.publish(ctx, events.SessionFinished, id.Hex(), nil)
	return nil
}

// Report files a comment about a question or survey. The session is not
// checked for existence.
func (s *SessionService) Report(ctx context.Context, sessionID, comment string, kind models.ReportKind) (primitive.ObjectID, error) {
	if !kind.Valid() {
		return primitive.NilObjectID, fmt.Errorf("%w: unknown report type %q", ErrValidation, kind)
	}

	allowed, err := s.limiter.Allow(ctx, sessionID)
	if err != nil {
		// fail open: a broken limiter must not drop reports
		s.opts.Logger.Warn("report limiter failed", "error", err)
		allowed = true
	}
	if !allowed {
		return primitive.NilObjectID, fmt.Errorf("session %s: %w", sessionID, ErrRateLimited)
	}

	report := models.Report{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		Comment:   comment,
		Type:      kind,
		CreatedAt: s.opts.Now(),
	}

	ctx, cancel := s.opts.ctx(ctx)
	defer cancel()
	if _, err := s.reports.InsertOne(ctx, report); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert report: %w", err)
	}

	s.publish(ctx, events.ReportFiled, sessionID, events.ReportFiledPayload{Kind: string(kind)})
	return report.ID, nil
}

// publish never fails the caller; a lost event is only logged.
func (s *SessionService) publish(ctx context.Context, eventType, sessionID string, payload interface{}) {
	event, err := events.NewEvent(eventType, sessionID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.opts.Logger.Warn("session event not published", "type", eventType, "error", err)
	}
}
