package controllers

import (
	"context"
	"net/http"

	"surveyhub/internal/logger"
	"surveyhub/models"
	"surveyhub/structs"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResponseStore records and lists flat survey submissions.
type ResponseStore interface {
	Access(ctx context.Context, ref models.SurveyRef, username string) (*models.Survey, error)
	Submit(ctx context.Context, ref models.SurveyRef, username string, answers []models.Answer) (primitive.ObjectID, error)
	List(ctx context.Context, ref models.SurveyRef, limit int64) ([]models.Response, error)
}

type ResponseController struct {
	responses ResponseStore
	log       *logger.Logger
}

func NewResponseController(responses ResponseStore, log *logger.Logger) *ResponseController {
	return &ResponseController{responses: responses, log: orNop(log)}
}

func (rc *ResponseController) AccessSurvey(c *gin.Context) {
	var req structs.SurveyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ref, err := req.Ref()
	if err != nil {
		badRequest(c, err)
		return
	}

	survey, err := rc.responses.Access(c.Request.Context(), ref, req.Username)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

func (rc *ResponseController) SubmitSurvey(c *gin.Context) {
	var req structs.SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ref, err := req.Ref()
	if err != nil {
		badRequest(c, err)
		return
	}

	id, err := rc.responses.Submit(c.Request.Context(), ref, req.Username, req.Answers)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submission_id": id.Hex(),
		"message":       "Survey responses submitted successfully",
	})
}

func (rc *ResponseController) ListResponses(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	responses, err := rc.responses.List(c.Request.Context(), ref, queryLimit(c))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}
