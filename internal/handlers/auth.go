package handlers

import (
	"net/http"

	"inkpress/internal/middleware"
	"inkpress/internal/render"
	"inkpress/internal/service"
)

// Auth groups the account HTTP handlers.
type Auth struct {
	accounts *service.AuthService
}

// NewAuth creates a new Auth handler group.
func NewAuth(accounts *service.AuthService) *Auth {
	return &Auth{accounts: accounts}
}

// Register creates an account and answers 201 with a token.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := a.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, res)
}

// Login exchanges credentials for a token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := a.accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, res)
}

// Me returns the caller's identity. Mounted behind optional auth, so an
// anonymous caller gets 401 from the service rather than the gate.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := a.accounts.Me(middleware.IdentityFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"user": identity})
}
