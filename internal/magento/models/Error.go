package models

import "fmt"

// ErrorResponse is the API's error body.
type ErrorResponse struct {
	Message    string        `json:"message"`
	Parameters []interface{} `json:"parameters,omitempty"`
	Trace      string        `json:"trace,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("api error: %s", e.Message)
}
