package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/noteghar/noteghar/internal/ctxkeys"
	"github.com/noteghar/noteghar/internal/middleware"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/service"
	"github.com/noteghar/noteghar/internal/validation"
)

// multipartOverhead leaves room for the form fields next to the file.
const multipartOverhead = 1 << 20

type NoteHandler struct {
	noteService       *service.NoteService
	moderationService *service.ModerationService
	maxUploadBytes    int64
}

func NewNoteHandler(noteService *service.NoteService, moderationService *service.ModerationService, maxUploadBytes int64) *NoteHandler {
	return &NoteHandler{
		noteService:       noteService,
		moderationService: moderationService,
		maxUploadBytes:    maxUploadBytes,
	}
}

func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		RenderError(w, r, err)
		return
	}

	q := r.URL.Query()
	notes, err := h.noteService.Search(r.Context(), model.NoteFilter{
		Query:      q.Get("q"),
		CourseID:   q.Get("course_id"),
		SemesterID: q.Get("semester_id"),
		SubjectID:  q.Get("subject_id"),
		Limit:      limit,
	})
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, notes)
}

// Upload accepts a multipart form with the note fields and a "file" part.
func (h *NoteHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RenderError(w, r, validation.Field("file", fmt.Sprintf("file too large: maximum size is %d MB", h.maxUploadBytes>>20)))
			return
		}
		RenderError(w, r, validation.Field("file", "failed to parse upload form"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		RenderError(w, r, validation.Field("file", "a file is required"))
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	draft := model.NoteDraft{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		CourseID:    r.FormValue("course_id"),
		SemesterID:  r.FormValue("semester_id"),
		SubjectID:   r.FormValue("subject_id"),
		Tags:        r.FormValue("tags"),
	}
	upload := service.Upload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}

	note, err := h.noteService.Submit(r.Context(), user, draft, upload)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusCreated, note)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.noteService.Get(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, detail)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.noteService.DeleteOwn(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Download records the download and redirects to a short-lived file link.
func (h *NoteHandler) Download(w http.ResponseWriter, r *http.Request) {
	url, err := h.noteService.Download(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), middleware.ClientIP(r))
	if err != nil {
		RenderError(w, r, err)
		return
	}

	if r.URL.Query().Get("redirect") == "false" {
		Render(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *NoteHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	ratings, err := h.noteService.Ratings(r.Context(), ctxkeys.User(r.Context()), noteID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	avg, count, err := h.noteService.AverageRating(r.Context(), noteID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	Render(w, http.StatusOK, map[string]any{
		"average_rating": avg,
		"rating_count":   count,
		"ratings":        ratings,
	})
}

type rateRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

func (h *NoteHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RenderError(w, r, err)
		return
	}

	rating, err := h.noteService.Rate(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req.Rating, req.Review)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, rating)
}

func (h *NoteHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	created, err := h.noteService.MarkHelpful(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		RenderError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	Render(w, status, map[string]bool{"helpful": true})
}

func (h *NoteHandler) UnmarkHelpful(w http.ResponseWriter, r *http.Request) {
	err := h.noteService.UnmarkHelpful(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) Report(w http.ResponseWriter, r *http.Request) {
	var in model.NewReport
	if err := decodeJSON(w, r, &in); err != nil {
		RenderError(w, r, err)
		return
	}

	report, err := h.moderationService.FileReport(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), in)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusCreated, report)
}

func (h *NoteHandler) MyNotes(w http.ResponseWriter, r *http.Request) {
	status := model.NoteStatus(r.URL.Query().Get("status"))
	notes, err := h.noteService.MyNotes(r.Context(), ctxkeys.User(r.Context()), status)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, notes)
}
