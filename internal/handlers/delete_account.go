package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/josephvutrinh/eira/internal/api/middleware"
	"github.com/josephvutrinh/eira/internal/identity"
)

// DeleteAccountRequest is the request body for account deletion.
// UserID is optional; when present it must match the caller.
type DeleteAccountRequest struct {
	UserID string `json:"userId"`
}

// DeleteAccountResponse is the success response.
type DeleteAccountResponse struct {
	OK bool `json:"ok"`
}

// DeleteAccount handles the privileged deletion of the calling user.
// The caller is identified by the verified bearer token; a userId in the
// body naming anyone else is rejected before any destructive action.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if h.admin == nil {
		h.Error(w, http.StatusInternalServerError, "identity provider not configured")
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	if callerID == "" {
		h.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// A malformed or empty body is treated as an absent userId; the
	// caller then deletes their own account.
	var req DeleteAccountRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.UserID != "" && req.UserID != callerID {
		h.Error(w, http.StatusForbidden, "cannot delete a different user")
		return
	}

	if err := h.admin.AdminDeleteUser(r.Context(), callerID); err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusInternalServerError {
			h.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	h.JSON(w, http.StatusOK, DeleteAccountResponse{OK: true})
}
