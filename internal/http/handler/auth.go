package handler

import (
	"net/http"

	"stash/internal/account"
	"stash/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Tokens   *auth.Tokens
	Accounts *account.Service

	errs     errorWriter
	validate *validator.Validate
}

func NewAuthHandler(tokens *auth.Tokens, accounts *account.Service, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		Tokens:   tokens,
		Accounts: accounts,
		errs:     errorWriter{Log: log},
		validate: newValidator(),
	}
}

type tokenReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Token exchanges credentials for the caller's API token. The identifier is
// read from "username", falling back to "email".
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	req := tokenReq{Username: f.str("username"), Password: f.str("password")}
	if req.Username == "" {
		req.Username = f.str("email")
	}
	if err := h.validate.Struct(req); err != nil {
		h.errs.write(w, r, fromValidator(err))
		return
	}

	token, _, err := h.Tokens.Issue(r.Context(), req.Username, req.Password)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Revoke deletes the caller's token.
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	if err := h.Tokens.Revoke(r.Context(), u.ID); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

// Register creates a regular account and returns it with a fresh token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	email, password := f.str("email"), f.str("password")
	u, err := h.Accounts.Register(r.Context(), email, password)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	token, _, err := h.Tokens.Issue(r.Context(), u.Email, password)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  toUserDTO(*u),
		"token": token,
	})
}
