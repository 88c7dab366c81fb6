package httpx

import (
	"log/slog"
	"net/http"

	"github.com/itcache/portal/internal/domain/profile"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// ThemeHandlers serves the theme preference endpoints. The authenticated
// value lives on the profile row; anonymous requests read the default and
// cannot persist (the anonymous store is per-device, not server-side).
type ThemeHandlers struct {
	Profiles ports.ProfileStore
	Logger   *slog.Logger
}

type themePayload struct {
	Theme profile.Theme `json:"theme"`
}

// Get handles GET /api/theme.
func (h *ThemeHandlers) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, themePayload{Theme: profile.DefaultTheme})
		return
	}

	p, err := h.Profiles.GetByUserID(r.Context(), sess.UserID)
	if err != nil {
		h.Logger.Error("profile lookup failed",
			slog.String("user_id", sess.UserID),
			slog.Any("error", err))
		// An authenticated subject with no profile row is a data-integrity
		// fault; never answer with a defaulted preference. Other failures
		// keep their own kind.
		if apperrors.IsNotFound(err) {
			err = apperrors.ProfileLookup(sess.UserID, err)
		}
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, themePayload{Theme: p.Theme})
}

// Update handles PUT /api/theme.
func (h *ThemeHandlers) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     apperrors.Auth("sign in to persist a theme preference"),
		})
		return
	}

	var req themePayload
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !req.Theme.Valid() {
		WriteAppError(w, apperrors.Validation("theme must be light or dark"))
		return
	}

	if err := h.Profiles.UpdateTheme(r.Context(), sess.UserID, req.Theme); err != nil {
		h.Logger.Error("theme update failed",
			slog.String("user_id", sess.UserID),
			slog.Any("error", err))
		WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
