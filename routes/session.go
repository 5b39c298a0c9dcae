package routes

import (
	"surveyhub/controllers"

	"github.com/gin-gonic/gin"
)

// SetupSessionRoutes registers the stepwise voice survey endpoints.
func SetupSessionRoutes(router gin.IRouter, sessions *controllers.SessionController) {
	router.POST("/start_survey/", sessions.StartSurvey)
	router.POST("/submit_answer/", sessions.SubmitAnswer)
	router.GET("/get_next_question/:sessionId", sessions.GetNextQuestion)
	router.POST("/finish_survey/:sessionId", sessions.FinishSurvey)
	router.POST("/report_question/", sessions.ReportQuestion)
	router.POST("/report_survey/", sessions.ReportSurvey)
}

func SetupAlexaRoutes(router gin.IRouter, alexa *controllers.AlexaController) {
	router.POST("/alexa/survey/", alexa.HandleSurvey)
}

func SetupHealthRoutes(router gin.IRouter, health *controllers.HealthController) {
	router.GET("/", health.Root)
	router.GET("/healthz", health.Healthz)
}
