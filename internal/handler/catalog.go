package handler

import (
	"net/http"

	"github.com/noteghar/noteghar/internal/ctxkeys"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) Courses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalogService.Courses(r.Context())
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, courses)
}

func (h *CatalogHandler) Semesters(w http.ResponseWriter, r *http.Request) {
	semesters, err := h.catalogService.Semesters(r.Context())
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, semesters)
}

func (h *CatalogHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subjects, err := h.catalogService.Subjects(r.Context(), q.Get("course_id"), q.Get("semester_id"))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, subjects)
}

func (h *CatalogHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var in model.NewCourse
	if err := decodeJSON(w, r, &in); err != nil {
		RenderError(w, r, err)
		return
	}

	course, err := h.catalogService.CreateCourse(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusCreated, course)
}

func (h *CatalogHandler) CreateSemester(w http.ResponseWriter, r *http.Request) {
	var in model.NewSemester
	if err := decodeJSON(w, r, &in); err != nil {
		RenderError(w, r, err)
		return
	}

	semester, err := h.catalogService.CreateSemester(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusCreated, semester)
}

func (h *CatalogHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var in model.NewSubject
	if err := decodeJSON(w, r, &in); err != nil {
		RenderError(w, r, err)
		return
	}

	subject, err := h.catalogService.CreateSubject(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusCreated, subject)
}
