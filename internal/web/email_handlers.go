package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/grhey0115/Tenant-Assessment/internal/email"
)

type sendEmailResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// handleAPISendEmail sends an assessment confirmation built from the
// request body and returns the provider message id.
func (s *Server) handleAPISendEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req email.Confirmation
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.To) == "" {
		apiError(w, "recipient is required", http.StatusBadRequest)
		return
	}

	id, err := email.SendConfirmation(r.Context(), s.sender, req)
	if err != nil {
		slog.Error("sending confirmation email", "to", req.To, "error", err)
		apiError(w, "Failed to send email", http.StatusInternalServerError)
		return
	}

	slog.Info("confirmation email sent", "to", req.To, "message_id", id)
	apiJSON(w, sendEmailResponse{Message: "Email sent successfully", ID: id}, http.StatusOK)
}
