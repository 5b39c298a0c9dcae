package controllers

import (
	"context"
	"net/http"
	"strconv"

	"surveyhub/internal/logger"
	"surveyhub/models"
	"surveyhub/services"
	"surveyhub/structs"

	"github.com/gin-gonic/gin"
)

// SurveyStore is the survey persistence the handlers need.
type SurveyStore interface {
	Create(ctx context.Context, in services.CreateSurveyInput) (*models.Survey, error)
	GetSurvey(ctx context.Context, ref models.SurveyRef) (*models.Survey, error)
	ListSurveys(ctx context.Context, limit int64) ([]models.Survey, error)
	AppendQuestion(ctx context.Context, ref models.SurveyRef, q models.Question) error
	ReplaceQuestions(ctx context.Context, ref models.SurveyRef, qs []models.Question) error
	RenameSurvey(ctx context.Context, ref models.SurveyRef, name string) error
	RemoveQuestion(ctx context.Context, ref models.SurveyRef, text string) error
	UpdateSurvey(ctx context.Context, ref models.SurveyRef, patch services.SurveyPatch) (*models.Survey, error)
	DeleteSurvey(ctx context.Context, ref models.SurveyRef) error
}

type SurveyController struct {
	surveys SurveyStore
	log     *logger.Logger
}

func NewSurveyController(surveys SurveyStore, log *logger.Logger) *SurveyController {
	return &SurveyController{surveys: surveys, log: orNop(log)}
}

// pathRef reads the :ref segment, honouring ?by=id|number.
func pathRef(c *gin.Context) (models.SurveyRef, error) {
	return models.ParseSurveyRef(c.Param("ref"), c.Query("by"))
}

// queryLimit reads ?limit=; zero means the server default.
func queryLimit(c *gin.Context) int64 {
	n, err := strconv.ParseInt(c.Query("limit"), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (sc *SurveyController) CreateSurvey(c *gin.Context) {
	var req structs.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	survey, err := sc.surveys.Create(c.Request.Context(), services.CreateSurveyInput{
		SurveyNumber: req.SurveyNumber,
		Name:         req.Name,
		Title:        req.Title,
		Description:  req.Description,
		Questions:    req.Questions,
	})
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusCreated, survey)
}

func (sc *SurveyController) ListSurveys(c *gin.Context) {
	surveys, err := sc.surveys.ListSurveys(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, surveys)
}

func (sc *SurveyController) GetSurvey(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	survey, err := sc.surveys.GetSurvey(c.Request.Context(), ref)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

func (sc *SurveyController) UpdateSurvey(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	var req structs.UpdateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	survey, err := sc.surveys.UpdateSurvey(c.Request.Context(), ref, services.SurveyPatch{
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
	})
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

func (sc *SurveyController) DeleteSurvey(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	if err := sc.surveys.DeleteSurvey(c.Request.Context(), ref); err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Survey deleted successfully"})
}

func (sc *SurveyController) AddQuestion(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	var req structs.AddQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := sc.surveys.AppendQuestion(c.Request.Context(), ref, req.Question()); err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question added successfully"})
}

func (sc *SurveyController) UpdateQuestions(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	var req structs.UpdateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := sc.surveys.ReplaceQuestions(c.Request.Context(), ref, req.Questions); err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Questions updated successfully"})
}

func (sc *SurveyController) DeleteQuestion(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	var req structs.RemoveQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := sc.surveys.RemoveQuestion(c.Request.Context(), ref, req.QuestionText); err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

func (sc *SurveyController) RenameSurvey(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	var req structs.UpdateSurveyNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := sc.surveys.RenameSurvey(c.Request.Context(), ref, req.Name); err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Survey name updated successfully"})
}
