package routes

import (
	"surveyhub/controllers"

	"github.com/gin-gonic/gin"
)

// SetupSurveyRoutes registers survey and flat response routes. :ref is a
// survey id or number, see ?by=.
func SetupSurveyRoutes(router gin.IRouter, surveys *controllers.SurveyController, responses *controllers.ResponseController) {
	s := router.Group("/surveys")
	{
		s.POST("/", surveys.CreateSurvey)
		s.GET("/", surveys.ListSurveys)

		s.POST("/access/", responses.AccessSurvey)
		s.POST("/submit/", responses.SubmitSurvey)

		s.GET("/:ref", surveys.GetSurvey)
		s.PUT("/:ref", surveys.UpdateSurvey)
		s.DELETE("/:ref", surveys.DeleteSurvey)
		s.POST("/:ref/questions/", surveys.AddQuestion)
		s.PUT("/:ref/questions/", surveys.UpdateQuestions)
		s.DELETE("/:ref/questions/", surveys.DeleteQuestion)
		s.PUT("/:ref/name/", surveys.RenameSurvey)
		s.GET("/:ref/responses/", responses.ListResponses)
	}
}
