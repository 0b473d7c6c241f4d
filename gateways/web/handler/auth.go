package handler

import (
	"fmt"
	"net/http"

	"github.com/attendly/backend/pkg/json"
	"github.com/attendly/backend/pkg/provider"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := json.ParseJSON(r, &body); err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if body.Email == "" || body.Password == "" {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("email and password are required"))
		return
	}

	session, err := h.identity.Signup(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		h.log.Warn("signup failed", "error", err, "email", body.Email)
		json.WriteError(w, authErrorStatus(err), fmt.Errorf("signup failed"))
		return
	}

	json.WriteSuccess(w, http.StatusCreated, "Account created", session)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.ParseJSON(r, &body); err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if body.Email == "" || body.Password == "" {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("email and password are required"))
		return
	}

	session, err := h.identity.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.log.Warn("login failed", "error", err, "email", body.Email)
		json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("invalid email or password"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", session)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	raw, err := bearerToken(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("access denied"))
		return
	}

	user, err := h.identity.GetUser(r.Context(), raw)
	if err != nil {
		json.WriteError(w, authErrorStatus(err), fmt.Errorf("access denied"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", user)
}

func authErrorStatus(err error) int {
	switch provider.KindOf(err) {
	case provider.InvalidContent:
		return http.StatusUnauthorized
	case provider.RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
