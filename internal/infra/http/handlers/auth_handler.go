package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
)

type Authenticator interface {
	SignUp(ctx context.Context, in usecase.SignUpInput) (*usecase.AuthOutput, error)
	SignIn(ctx context.Context, in usecase.SignInInput) (*usecase.AuthOutput, error)
	Me(ctx context.Context, userID string) (*entity.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) (*usecase.AuthOutput, error)
}

type AuthHandler struct {
	Responder
	auth       Authenticator
	cookieName string
	now        func() time.Time
}

func NewAuthHandler(rs Responder, auth Authenticator, cookieName string) *AuthHandler {
	return &AuthHandler{Responder: rs, auth: auth, cookieName: cookieName, now: time.Now}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in usecase.SignUpInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	out, err := h.auth.SignUp(r.Context(), in)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.setSession(w, out)
	h.OK(w, http.StatusCreated, "Account created", out)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var in usecase.SignInInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	out, err := h.auth.SignIn(r.Context(), in)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.setSession(w, out)
	h.OK(w, http.StatusOK, "", out)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
	})
	h.OK(w, http.StatusOK, "Signed out", struct{}{})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), actorOf(r).UserID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", user)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword always answers 200 so the endpoint does not reveal which emails exist.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), in.Email); err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "If that email is registered, a reset link is on its way", struct{}{})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	out, err := h.auth.ResetPassword(r.Context(), in.Token, in.Password)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.setSession(w, out)
	h.OK(w, http.StatusOK, "Password updated", out)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, out *usecase.AuthOutput) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    out.Token,
		Path:     "/",
		Expires:  out.ExpiresAt,
		MaxAge:   int(out.ExpiresAt.Sub(h.now()).Seconds()),
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
	})
}
