package handler

import (
	"net/http"
	"net/url"

	"stash/internal/account"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// UserHandler serves /users. Every route is mounted behind RequireAuth and
// RequireSuperUser.
type UserHandler struct {
	Accounts *account.Service

	errs errorWriter
}

func NewUserHandler(accounts *account.Service, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{Accounts: accounts, errs: errorWriter{Log: log}}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Accounts.List(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	isSuper, err := f.boolean("is_superuser")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	quota, err := f.quota("quota")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	u, err := h.Accounts.Create(r.Context(), account.CreateInput{
		Email:       f.str("email"),
		Password:    f.str("password"),
		IsSuperuser: isSuper,
		Quota:       quota,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserDTO(*u))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Accounts.GetByEmail(r.Context(), emailParam(r))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

// Update changes the quota only. The "quota" key is required; null clears it.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if !f.has("quota") {
		h.errs.write(w, r, fieldError("quota", "This field is required."))
		return
	}
	quota, err := f.quota("quota")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	u, err := h.Accounts.UpdateQuota(r.Context(), emailParam(r), quota)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.Delete(r.Context(), emailParam(r)); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
