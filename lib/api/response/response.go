package response

import "ywbilling/lib/clock"

// Code is a stable machine readable reason attached to failed responses
type Code string

const (
	CodeBadRequest       Code = "bad_request"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodeNotFound         Code = "not_found"
	CodeMethodNotAllowed Code = "method_not_allowed"
	CodeConflict         Code = "conflict"
	CodeMalformedRecord  Code = "malformed_record"
	CodeNotRenderable    Code = "invoice_not_renderable"
	CodeUnavailable      Code = "service_unavailable"
	CodeTimeout          Code = "timeout"
	CodeInternal         Code = "internal_error"
)

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	Code          Code        `json:"code,omitempty"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

// Error builds a failed envelope; the message is for people, the code for clients
func Error(code Code, message string) Response {
	if code == "" {
		code = CodeInternal
	}
	return Response{
		Success:       false,
		Code:          code,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}
