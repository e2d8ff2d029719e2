package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/compresr/flightdesk/internal/chat"
	"github.com/compresr/flightdesk/internal/monitoring"
)

// MaxRequestBodySize bounds chat request bodies.
const MaxRequestBodySize = 64 << 10

// ChatMessageRequest is the chat endpoint body. SessionID may be null.
type ChatMessageRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return
	}

	in := chat.Request{Message: req.Message, UserAgent: r.UserAgent()}
	if req.SessionID != nil {
		in.SessionID = *req.SessionID
	}

	reply, err := s.chat.HandleMessage(r.Context(), in)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, reply)
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, chat.ErrStoreUnavailable):
		requestID := monitoring.RequestIDFromContext(r.Context())
		s.alerts.FlagStoreFailure(requestID, s.chat.StoreBackend(), err)
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
	case r.Context().Err() != nil:
		// Client went away; nobody reads this.
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "failed to generate response")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
