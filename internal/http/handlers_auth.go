package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// AuthHandlers serves the password-grant auth endpoints. The identity client
// comes from the request context so every call rides this request's cookies.
type AuthHandlers struct {
	LoginPath string
	Logger    *slog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	client, ok := ClientFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("identity client not attached")})
		return
	}

	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess, err := client.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Logger.Info("sign-in rejected", slog.String("email", req.Email), slog.Any("error", err))
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse{
		UserID:    sess.UserID,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
	})
}

type signUpResponse struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	ConfirmationSent bool   `json:"confirmation_sent"`
}

// CreateAccount handles POST /auth/create-account. Registration is
// provisional: the provider may require confirmation, so no session is
// implied by a success response.
func (h *AuthHandlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	client, ok := ClientFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("identity client not attached")})
		return
	}

	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := client.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Logger.Info("sign-up rejected", slog.String("email", req.Email), slog.Any("error", err))
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, signUpResponse{
		UserID:           result.UserID,
		Email:            result.Email,
		ConfirmationSent: result.ConfirmationSent,
	})
}

// Logout handles POST /auth/logout. The client clears local identity state
// and the session cookie before the provider call returns, so even a failed
// provider-side revocation leaves this browser signed out; the response is
// always a redirect to the login location.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	client, ok := ClientFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("identity client not attached")})
		return
	}

	if err := client.SignOut(r.Context()); err != nil {
		h.Logger.Warn("provider-side sign-out failed", slog.Any("error", err))
	}

	http.Redirect(w, r, h.LoginPath, http.StatusSeeOther)
}
