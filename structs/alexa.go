package structs

import "strings"

// Request types sent by the Alexa platform.
const (
	AlexaLaunchRequest       = "LaunchRequest"
	AlexaIntentRequest       = "IntentRequest"
	AlexaSessionEndedRequest = "SessionEndedRequest"
)

// AlexaRequest is the subset of the Alexa request envelope the survey skill
// reads.
type AlexaRequest struct {
	Version string       `json:"version"`
	Session AlexaSession `json:"session"`
	Context AlexaContext `json:"context"`
	Request AlexaBody    `json:"request"`
}

type AlexaSession struct {
	New        bool                   `json:"new"`
	SessionID  string                 `json:"sessionId"`
	Attributes map[string]interface{} `json:"attributes"`
	User       struct {
		UserID string `json:"userId"`
	} `json:"user"`
}

type AlexaContext struct {
	System struct {
		Device struct {
			DeviceID string `json:"deviceId"`
		} `json:"device"`
	} `json:"System"`
}

type AlexaBody struct {
	Type      string      `json:"type"`
	RequestID string      `json:"requestId"`
	Locale    string      `json:"locale"`
	Intent    AlexaIntent `json:"intent"`
	Reason    string      `json:"reason,omitempty"`
}

type AlexaIntent struct {
	Name  string               `json:"name"`
	Slots map[string]AlexaSlot `json:"slots"`
}

type AlexaSlot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Slot returns the trimmed value of the named intent slot, or "".
func (r *AlexaRequest) Slot(name string) string {
	if slot, ok := r.Request.Intent.Slots[name]; ok {
		return strings.TrimSpace(slot.Value)
	}
	return ""
}

// DeviceID prefers the device id and falls back to the Alexa user id.
func (r *AlexaRequest) DeviceID() string {
	if id := r.Context.System.Device.DeviceID; id != "" {
		return id
	}
	return r.Session.User.UserID
}

// Attribute returns a string session attribute, or "".
func (r *AlexaRequest) Attribute(key string) string {
	if v, ok := r.Session.Attributes[key].(string); ok {
		return v
	}
	return ""
}

type AlexaResponse struct {
	Version           string                 `json:"version"`
	SessionAttributes map[string]interface{} `json:"sessionAttributes,omitempty"`
	Response          AlexaResponseBody      `json:"response"`
}

type AlexaResponseBody struct {
	OutputSpeech     *AlexaSpeech   `json:"outputSpeech,omitempty"`
	Reprompt         *AlexaReprompt `json:"reprompt,omitempty"`
	ShouldEndSession bool           `json:"shouldEndSession"`
}

type AlexaSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AlexaReprompt struct {
	OutputSpeech AlexaSpeech `json:"outputSpeech"`
}

// NewAlexaSpeech builds a plain-text reply. A non-empty reprompt keeps the
// session open.
func NewAlexaSpeech(text, reprompt string, attrs map[string]interface{}) AlexaResponse {
	resp := AlexaResponse{
		Version:           "1.0",
		SessionAttributes: attrs,
		Response: AlexaResponseBody{
			OutputSpeech:     &AlexaSpeech{Type: "PlainText", Text: text},
			ShouldEndSession: reprompt == "",
		},
	}
	if reprompt != "" {
		resp.Response.Reprompt = &AlexaReprompt{OutputSpeech: AlexaSpeech{Type: "PlainText", Text: reprompt}}
	}
	return resp
}

// EmptyAlexaResponse acknowledges a request without speaking.
func EmptyAlexaResponse() AlexaResponse {
	return AlexaResponse{Version: "1.0", Response: AlexaResponseBody{ShouldEndSession: true}}
}
