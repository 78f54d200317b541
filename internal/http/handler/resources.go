package handler

import (
	"net/http"
	"strconv"
	"strings"

	"stash/internal/auth"
	"stash/internal/resource"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ResourceHandler serves /resources. Every route is mounted behind RequireAuth.
type ResourceHandler struct {
	Svc *resource.Service

	errs     errorWriter
	validate *validator.Validate
}

func NewResourceHandler(svc *resource.Service, log logrus.FieldLogger) *ResourceHandler {
	return &ResourceHandler{Svc: svc, errs: errorWriter{Log: log}, validate: newValidator()}
}

type createResourceReq struct {
	Content string `json:"content" validate:"notblank"`
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	rows, err := h.Svc.List(r.Context(), caller)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	out := make([]resourceDTO, 0, len(rows))
	for _, res := range rows {
		out = append(out, toResourceDTO(res))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create stores a resource owned by the caller. Any owner field in the body
// is ignored.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	f, err := readFields(w, r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	if !f.has("content") {
		h.errs.write(w, r, fieldError("content", "This field is required."))
		return
	}
	req := createResourceReq{Content: f.str("content")}
	if err := h.validate.Struct(req); err != nil {
		h.errs.write(w, r, fromValidator(err))
		return
	}

	res, err := h.Svc.Create(r.Context(), caller.ID, strings.TrimSpace(req.Content))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceDTO(*res))
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(*res))
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), res.ID); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

// load fetches the resource named in the path and checks that the caller
// owns it or is a superuser.
func (h *ResourceHandler) load(w http.ResponseWriter, r *http.Request) (*resource.Resource, bool) {
	caller, _ := auth.UserFromContext(r.Context())

	// ids are positive and must fit a signed 64-bit column.
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.errs.write(w, r, resource.ErrNotFound)
		return nil, false
	}

	res, err := h.Svc.Get(r.Context(), uint64(id))
	if err != nil {
		h.errs.write(w, r, err)
		return nil, false
	}
	if !auth.IsOwnerOrSuperUser(caller, res.CreatedByID) {
		h.errs.write(w, r, errForbidden)
		return nil, false
	}
	return res, true
}
