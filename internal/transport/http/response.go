package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultRetryAfter = 2 * time.Second

type apiError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

// setRetryAfter hints pollers how long to back off before the next request.
func setRetryAfter(w http.ResponseWriter) {
	w.Header().Set("Retry-After", fmt.Sprintf("%.0f", defaultRetryAfter.Seconds()))
}
