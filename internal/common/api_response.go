package common

import (
	"encoding/json"
	"net/http"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" && message == "" {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// RespondGate sends a refused access decision with its payload.
func RespondGate(w http.ResponseWriter, initTime time.Time, message string, gate dtos.GateResponse, statusCode int) {
	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         gate,
	}

	writeJSON(w, statusCode, response)
}

// RespondAppError maps err's kind onto the status code. Client-facing
// kinds keep their own message; internal and unavailable failures are
// logged and reported as failMessage.
func RespondAppError(w http.ResponseWriter, initTime time.Time, err error, failMessage string) {
	kind := apperr.KindOf(err)
	code := apperr.HTTPStatus(kind)

	switch kind {
	case apperr.KindInternal, apperr.KindUnavailable:
		logging.Error(failMessage, "error", err, "kind", string(kind))
		RespondError(w, initTime, nil, failMessage, code)
	default:
		RespondError(w, initTime, nil, clientMessage(err, failMessage), code)
	}
}

func clientMessage(err error, fallback string) string {
	if e, ok := asAppError(err); ok && e.Message != "" {
		return e.Message
	}
	return fallback
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
