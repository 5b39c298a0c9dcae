package routes

import (
	"net/http"

	"surveyhub/controllers"
	"surveyhub/internal/logger"
	"surveyhub/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterOptions struct {
	AllowedOrigins []string
	Tracing        bool
	ServiceName    string
	Logger         *logger.Logger
}

type Handlers struct {
	Surveys   *controllers.SurveyController
	Responses *controllers.ResponseController
	Sessions  *controllers.SessionController
	Alexa     *controllers.AlexaController
	Health    *controllers.HealthController
}

// NewRouter assembles the gin engine with middleware and every route.
func NewRouter(opts RouterOptions, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if opts.Tracing {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger(opts.Logger))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middlewares.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middlewares.HeaderRequestID},
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	router.Use(cors.New(corsCfg))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	SetupHealthRoutes(router, h.Health)
	SetupSurveyRoutes(router, h.Surveys, h.Responses)
	SetupSessionRoutes(router, h.Sessions)
	SetupAlexaRoutes(router, h.Alexa)
	return router
}
