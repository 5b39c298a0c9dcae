package structs

type StartSurveyRequest struct {
	DeviceID   string `json:"device_id" binding:"required"`
	SurveyCode string `json:"survey_code" binding:"required"`
}

type AnswerRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Answer    string `json:"answer" binding:"required"`
}

type ReportRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Comment   string `json:"comment" binding:"required"`
}
