package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"surveyhub/internal/logger"
	"surveyhub/models"
	"surveyhub/services"
	"surveyhub/structs"

	"github.com/gin-gonic/gin"
)

// Session attribute holding the survey session id between turns.
const alexaSessionAttr = "sessionId"

const (
	alexaWelcome  = "Welcome to the survey. Say start survey followed by your survey code."
	alexaHelp     = "You can say start survey followed by a code, next question, my answer is, report this question, or end survey."
	alexaFallback = "Sorry, I didn't understand that. Please try again."
	alexaApology  = "Sorry, something went wrong. Please try again later."
	alexaNoSurvey = "You have no survey in progress. Say start survey followed by your survey code."
	alexaGoodbye  = "Goodbye."
)

// SurveyReader looks surveys up by reference.
type SurveyReader interface {
	GetSurvey(ctx context.Context, ref models.SurveyRef) (*models.Survey, error)
}

type alexaIntentHandler func(ctx context.Context, req *structs.AlexaRequest) (structs.AlexaResponse, error)

// AlexaController turns Alexa intents into session operations and spoken
// replies.
type AlexaController struct {
	sessions SessionStore
	surveys  SurveyReader
	log      *logger.Logger
	intents  map[string]alexaIntentHandler
}

func NewAlexaController(sessions SessionStore, surveys SurveyReader, log *logger.Logger) *AlexaController {
	ac := &AlexaController{sessions: sessions, surveys: surveys, log: orNop(log)}
	ac.intents = map[string]alexaIntentHandler{
		"LaunchSurveyIntent":   ac.launchSurvey,
		"FetchSurveyIntent":    ac.fetchQuestion,
		"AnswerSurveyIntent":   ac.answer,
		"EndSurveyIntent":      ac.endSurvey,
		"ReportQuestionIntent": ac.reporter(models.ReportQuestion, "Thanks, the question has been reported."),
		"ReportSurveyIntent":   ac.reporter(models.ReportSurvey, "Thanks, the survey has been reported."),
		"AMAZON.HelpIntent":    speakStatic(alexaHelp, alexaHelp),
		"AMAZON.StopIntent":    speakStatic(alexaGoodbye, ""),
		"AMAZON.CancelIntent":  speakStatic(alexaGoodbye, ""),
	}
	return ac
}

func speakStatic(text, reprompt string) alexaIntentHandler {
	return func(context.Context, *structs.AlexaRequest) (structs.AlexaResponse, error) {
		return structs.NewAlexaSpeech(text, reprompt, nil), nil
	}
}

// HandleSurvey answers every request with HTTP 200 once the envelope decodes.
func (ac *AlexaController) HandleSurvey(c *gin.Context) {
	var req structs.AlexaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, ac.dispatch(c.Request.Context(), &req))
}

func (ac *AlexaController) dispatch(ctx context.Context, req *structs.AlexaRequest) structs.AlexaResponse {
	switch req.Request.Type {
	case structs.AlexaLaunchRequest:
		return structs.NewAlexaSpeech(alexaWelcome, alexaWelcome, req.Session.Attributes)
	case structs.AlexaSessionEndedRequest:
		return structs.EmptyAlexaResponse()
	case structs.AlexaIntentRequest:
	default:
		return structs.NewAlexaSpeech(alexaFallback, alexaFallback, req.Session.Attributes)
	}

	handle, ok := ac.intents[req.Request.Intent.Name]
	if !ok {
		return structs.NewAlexaSpeech(alexaFallback, alexaFallback, req.Session.Attributes)
	}
	resp, err := handle(ctx, req)
	if err != nil {
		ac.log.Error("alexa intent failed", "intent", req.Request.Intent.Name, "error", err)
		return structs.NewAlexaSpeech(alexaApology, "", nil)
	}
	return resp
}

func (ac *AlexaController) launchSurvey(ctx context.Context, req *structs.AlexaRequest) (structs.AlexaResponse, error) {
	code := req.Slot("surveyCode")
	if code == "" {
		return structs.NewAlexaSpeech("Which survey code would you like to start?", "Please say your survey code.", nil), nil
	}

	ref, err := models.ParseNaturalRef(code)
	if err != nil {
		return structs.AlexaResponse{}, err
	}
	if _, err := ac.surveys.GetSurvey(ctx, ref); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			msg := fmt.Sprintf("I could not find survey %s. Please check the code and try again.", code)
			return structs.NewAlexaSpeech(msg, "Please say your survey code.", nil), nil
		}
		return structs.AlexaResponse{}, err
	}

	session, err := ac.sessions.Start(ctx, req.DeviceID(), code)
	if err != nil {
		return structs.AlexaResponse{}, err
	}
	sessionID := session.ID.Hex()
	next, err := ac.sessions.NextQuestion(ctx, sessionID)
	if err != nil {
		return structs.AlexaResponse{}, err
	}

	attrs := map[string]interface{}{alexaSessionAttr: sessionID}
	text := fmt.Sprintf("Survey %s started. %s", code, next.Question)
	return structs.NewAlexaSpeech(text, next.Question, attrs), nil
}

func (ac *AlexaController) fetchQuestion(ctx context.Context, req *structs.AlexaRequest) (structs.AlexaResponse, error) {
	sessionID := req.Attribute(alexaSessionAttr)
	if sessionID == "" {
		return structs.NewAlexaSpeech(alexaNoSurvey, alexaNoSurvey, nil), nil
	}
	next, err := ac.sessions.NextQuestion(ctx, sessionID)
	if err != nil {
		return ac.sessionError(err)
	}
	return speakNext("", next, req.Session.Attributes), nil
}

func (ac *AlexaController) answer(ctx context.Context, req *structs.AlexaRequest) (structs.AlexaResponse, error) {
	sessionID := req.Attribute(alexaSessionAttr)
	if sessionID == "" {
		return structs.NewAlexaSpeech(alexaNoSurvey, alexaNoSurvey, nil), nil
	}
	answer := req.Slot("answer")
	if answer == "" {
		return structs.NewAlexaSpeech("I didn't catch your answer. Please say it again.", "Please say your answer.", req.Session.Attributes), nil
	}

	if _, err := ac.sessions.SubmitAnswer(ctx, sessionID, answer); err != nil {
		return ac.sessionError(err)
	}
	next, err := ac.sessions.NextQuestion(ctx, sessionID)
	if err != nil {
		return ac.sessionError(err)
	}
	return speakNext("Got it. ", next, req.Session.Attributes), nil
}

func (ac *AlexaController) endSurvey(ctx context.Context, req *structs.AlexaRequest) (structs.AlexaResponse, error) {
	sessionID := req.Attribute(alexaSessionAttr)
	if sessionID == "" {
		return structs.NewAlexaSpeech(alexaGoodbye, "", nil), nil
	}
	if err := ac.sessions.Finish(ctx, sessionID); err != nil {
		return ac.sessionError(err)
	}
	return structs.NewAlexaSpeech("Thank you for completing the survey. Goodbye.", "", nil), nil
}

func (ac *AlexaController) reporter(kind models.ReportKind, thanks string) alexaIntentHandler {
	return func(ctx context.Context, req *structs.AlexaRequest) (structs.AlexaResponse, error) {
		sessionID := req.Attribute(alexaSessionAttr)
		if sessionID == "" {
			return structs.NewAlexaSpeech(alexaNoSurvey, alexaNoSurvey, nil), nil
		}
		comment := req.Slot("comment")
		if comment == "" {
			return structs.NewAlexaSpeech("What would you like to report?", "Please tell me what is wrong.", req.Session.Attributes), nil
		}

		if _, err := ac.sessions.Report(ctx, sessionID, comment, kind); err != nil {
			if errors.Is(err, services.ErrRateLimited) {
				return structs.NewAlexaSpeech("You have sent several reports already. Please try again later.", "", req.Session.Attributes), nil
			}
			return structs.AlexaResponse{}, err
		}
		return structs.NewAlexaSpeech(thanks, "What would you like to do next?", req.Session.Attributes), nil
	}
}

// sessionError speaks a restart hint for lost sessions and passes anything else
// on.
func (ac *AlexaController) sessionError(err error) (structs.AlexaResponse, error) {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidID) {
		msg := "I could not find your survey session. Say start survey followed by your survey code."
		return structs.NewAlexaSpeech(msg, msg, nil), nil
	}
	return structs.AlexaResponse{}, err
}

func speakNext(prefix string, next *services.NextQuestion, attrs map[string]interface{}) structs.AlexaResponse {
	if next.Completed {
		return structs.NewAlexaSpeech(prefix+next.Message, "", attrs)
	}
	return structs.NewAlexaSpeech(prefix+next.Question, next.Question, attrs)
}
