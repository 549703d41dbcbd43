package render

import (
	"bytes"
	"encoding/json"
	"net/http"
)

const ServiceErrorType = "service_error"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONStatus(w, data, http.StatusOK)
}

// ServiceError renders a plain service failure
func ServiceError(w http.ResponseWriter, message string, code int) {
	JSONStatus(w, ErrorResponse{Error: ServiceErrorType, Message: message}, code)
}

// JSONStatus sends data as json and enforces the status code
func JSONStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
