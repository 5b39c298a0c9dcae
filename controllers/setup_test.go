package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"surveyhub/internal/logger"
	"surveyhub/models"
	"surveyhub/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memSurveys is an in-memory SurveyStore.
type memSurveys struct {
	mu      sync.Mutex
	surveys []*models.Survey
	failAll error
}

func (m *memSurveys) find(ref models.SurveyRef) (int, *models.Survey) {
	for i, s := range m.surveys {
		if id, ok := ref.ID(); ok && s.ID == id {
			return i, s
		}
		if code, ok := ref.Number(); ok && s.SurveyNumber == code {
			return i, s
		}
	}
	return -1, nil
}

func (m *memSurveys) lookup(ref models.SurveyRef) (int, *models.Survey, error) {
	if m.failAll != nil {
		return -1, nil, m.failAll
	}
	i, s := m.find(ref)
	if s == nil {
		return -1, nil, fmt.Errorf("survey %s: %w", ref, services.ErrNotFound)
	}
	return i, s, nil
}

func (m *memSurveys) Create(_ context.Context, in services.CreateSurveyInput) (*models.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.SurveyNumber != "" {
		if _, s := m.find(models.NaturalRef(in.SurveyNumber)); s != nil {
			return nil, fmt.Errorf("survey %s: %w", in.SurveyNumber, services.ErrConflict)
		}
	}
	qs, err := models.NormalizeQuestions(in.Questions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	s := &models.Survey{ID: primitive.NewObjectID(), SurveyNumber: in.SurveyNumber, Name: in.Name, Questions: qs}
	m.surveys = append(m.surveys, s)
	return s, nil
}

func (m *memSurveys) GetSurvey(_ context.Context, ref models.SurveyRef) (*models.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, s, err := m.lookup(ref)
	return s, err
}

func (m *memSurveys) ListSurveys(context.Context, int64) ([]models.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Survey{}
	for _, s := range m.surveys {
		out = append(out, *s)
	}
	return out, m.failAll
}

func (m *memSurveys) AppendQuestion(_ context.Context, ref models.SurveyRef, q models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, s, err := m.lookup(ref)
	if err != nil {
		return err
	}
	if q, err = q.Normalize(); err != nil {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	s.Questions = append(s.Questions, q)
	return nil
}

func (m *memSurveys) ReplaceQuestions(_ context.Context, ref models.SurveyRef, qs []models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, s, err := m.lookup(ref)
	if err != nil {
		return err
	}
	s.Questions = qs
	return nil
}

func (m *memSurveys) RenameSurvey(_ context.Context, ref models.SurveyRef, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, s, err := m.lookup(ref)
	if err != nil {
		return err
	}
	s.Name = name
	return nil
}

func (m *memSurveys) RemoveQuestion(_ context.Context, ref models.SurveyRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, s, err := m.lookup(ref)
	if err != nil {
		return err
	}
	kept := s.Questions[:0]
	for _, q := range s.Questions {
		if q.Text != text {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(s.Questions) {
		return fmt.Errorf("question %q: %w", text, services.ErrQuestionNotFound)
	}
	s.Questions = kept
	return nil
}

func (m *memSurveys) UpdateSurvey(_ context.Context, ref models.SurveyRef, patch services.SurveyPatch) (*models.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, s, err := m.lookup(ref)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Questions != nil {
		s.Questions = *patch.Questions
	}
	return s, nil
}

func (m *memSurveys) DeleteSurvey(_ context.Context, ref models.SurveyRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, _, err := m.lookup(ref)
	if err != nil {
		return err
	}
	m.surveys = append(m.surveys[:i], m.surveys[i+1:]...)
	return nil
}

// memResponses is an in-memory ResponseStore backed by memSurveys.
type memResponses struct {
	mu        sync.Mutex
	surveys   *memSurveys
	responses []models.Response
}

func (m *memResponses) Access(ctx context.Context, ref models.SurveyRef, _ string) (*models.Survey, error) {
	return m.surveys.GetSurvey(ctx, ref)
}

func (m *memResponses) Submit(ctx context.Context, ref models.SurveyRef, username string, answers []models.Answer) (primitive.ObjectID, error) {
	s, err := m.surveys.GetSurvey(ctx, ref)
	if err != nil {
		return primitive.NilObjectID, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := models.Response{ID: primitive.NewObjectID(), SurveyID: s.ID, SurveyNumber: s.SurveyNumber, Username: username, Answers: answers}
	m.responses = append(m.responses, r)
	return r.ID, nil
}

func (m *memResponses) List(_ context.Context, ref models.SurveyRef, _ int64) ([]models.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Response{}
	for _, r := range m.responses {
		if id, ok := ref.ID(); ok && r.SurveyID == id {
			out = append(out, r)
		}
		if code, ok := ref.Number(); ok && r.SurveyNumber == code {
			out = append(out, r)
		}
	}
	return out, nil
}

// memSessions is an in-memory SessionStore.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	answers  []models.SessionAnswer
	reports  []models.Report
	limited  bool
	failAll  error
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*models.Session{}}
}

func (m *memSessions) get(sessionID string) (*models.Session, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	if !primitive.IsValidObjectID(sessionID) {
		return nil, fmt.Errorf("session %q: %w", sessionID, services.ErrInvalidID)
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, services.ErrNotFound)
	}
	return s, nil
}

func (m *memSessions) Start(_ context.Context, deviceID, surveyCode string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	s := &models.Session{ID: primitive.NewObjectID(), DeviceID: deviceID, SurveyCode: surveyCode}
	m.sessions[s.ID.Hex()] = s
	return s, nil
}

func (m *memSessions) SubmitAnswer(_ context.Context, sessionID, answer string) (*models.SessionAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	a := models.SessionAnswer{ID: primitive.NewObjectID(), SessionID: sessionID, DeviceID: s.DeviceID, Answer: answer, QuestionIndex: s.CurrentQuestion}
	s.CurrentQuestion++
	m.answers = append(m.answers, a)
	return &a, nil
}

func (m *memSessions) NextQuestion(_ context.Context, sessionID string) (*services.NextQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	if s.Completed {
		return &services.NextQuestion{Completed: true, Index: s.CurrentQuestion, Message: services.CompletedMessage}, nil
	}
	return &services.NextQuestion{
		Index:       s.CurrentQuestion,
		Question:    fmt.Sprintf("Question %d: Sample question text.", s.CurrentQuestion+1),
		Placeholder: true,
	}, nil
}

func (m *memSessions) Finish(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.get(sessionID)
	if err != nil {
		return err
	}
	s.Completed = true
	return nil
}

func (m *memSessions) Report(_ context.Context, sessionID, comment string, kind models.ReportKind) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limited {
		return primitive.NilObjectID, fmt.Errorf("session %s: %w", sessionID, services.ErrRateLimited)
	}
	r := models.Report{ID: primitive.NewObjectID(), SessionID: sessionID, Comment: comment, Type: kind}
	m.reports = append(m.reports, r)
	return r.ID, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	router    *gin.Engine
	surveys   *memSurveys
	responses *memResponses
	sessions  *memSessions
}

// SetupTestEnvironment wires every controller to in-memory stores on a bare
// gin engine, mirroring the production routes.
func SetupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	surveys := &memSurveys{}
	responses := &memResponses{surveys: surveys}
	sessions := newMemSessions()
	log := logger.Nop()

	sc := NewSurveyController(surveys, log)
	rc := NewResponseController(responses, log)
	sessc := NewSessionController(sessions, log)
	ac := NewAlexaController(sessions, surveys, log)
	hc := NewHealthController(stubPinger{}, log)

	router := gin.New()
	router.GET("/", hc.Root)
	router.GET("/healthz", hc.Healthz)

	s := router.Group("/surveys")
	{
		s.POST("/", sc.CreateSurvey)
		s.GET("/", sc.ListSurveys)
		s.POST("/access/", rc.AccessSurvey)
		s.POST("/submit/", rc.SubmitSurvey)
		s.GET("/:ref", sc.GetSurvey)
		s.PUT("/:ref", sc.UpdateSurvey)
		s.DELETE("/:ref", sc.DeleteSurvey)
		s.POST("/:ref/questions/", sc.AddQuestion)
		s.PUT("/:ref/questions/", sc.UpdateQuestions)
		s.DELETE("/:ref/questions/", sc.DeleteQuestion)
		s.PUT("/:ref/name/", sc.RenameSurvey)
		s.GET("/:ref/responses/", rc.ListResponses)
	}
	router.POST("/start_survey/", sessc.StartSurvey)
	router.POST("/submit_answer/", sessc.SubmitAnswer)
	router.GET("/get_next_question/:sessionId", sessc.GetNextQuestion)
	router.POST("/finish_survey/:sessionId", sessc.FinishSurvey)
	router.POST("/report_question/", sessc.ReportQuestion)
	router.POST("/report_survey/", sessc.ReportSurvey)
	router.POST("/alexa/survey/", ac.HandleSurvey)

	return &testEnv{router: router, surveys: surveys, responses: responses, sessions: sessions}
}

// do sends body (marshalled unless nil) and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
