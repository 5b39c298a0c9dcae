package controllers

import (
	"context"
	"net/http"

	"surveyhub/internal/logger"
	"surveyhub/models"
	"surveyhub/services"
	"surveyhub/structs"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStore drives voice survey sessions.
type SessionStore interface {
	Start(ctx context.Context, deviceID, surveyCode string) (*models.Session, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string) (*models.SessionAnswer, error)
	NextQuestion(ctx context.Context, sessionID string) (*services.NextQuestion, error)
	Finish(ctx context.Context, sessionID string) error
	Report(ctx context.Context, sessionID, comment string, kind models.ReportKind) (primitive.ObjectID, error)
}

type SessionController struct {
	sessions SessionStore
	log      *logger.Logger
}

func NewSessionController(sessions SessionStore, log *logger.Logger) *SessionController {
	return &SessionController{sessions: sessions, log: orNop(log)}
}

func (sc *SessionController) StartSurvey(c *gin.Context) {
	var req structs.StartSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := sc.sessions.Start(c.Request.Context(), req.DeviceID, req.SurveyCode)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID.Hex(), "message": "Survey started."})
}

func (sc *SessionController) SubmitAnswer(c *gin.Context) {
	var req structs.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	answer, err := sc.sessions.SubmitAnswer(c.Request.Context(), req.SessionID, req.Answer)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer recorded.", "question_index": answer.QuestionIndex})
}

func (sc *SessionController) GetNextQuestion(c *gin.Context) {
	next, err := sc.sessions.NextQuestion(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, next)
}

func (sc *SessionController) FinishSurvey(c *gin.Context) {
	if err := sc.sessions.Finish(c.Request.Context(), c.Param("sessionId")); err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Survey finished successfully."})
}

func (sc *SessionController) ReportQuestion(c *gin.Context) {
	sc.report(c, models.ReportQuestion, "Question reported successfully.")
}

func (sc *SessionController) ReportSurvey(c *gin.Context) {
	sc.report(c, models.ReportSurvey, "Survey reported successfully.")
}

func (sc *SessionController) report(c *gin.Context, kind models.ReportKind, message string) {
	var req structs.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := sc.sessions.Report(c.Request.Context(), req.SessionID, req.Comment, kind)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report_id": id.Hex(), "message": message})
}
