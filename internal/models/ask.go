package models

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Task     string `json:"task"`
	Question string `json:"question"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// AskResponse is the body returned by POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}
