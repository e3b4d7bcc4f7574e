package handler

import (
	"net/http"

	"github.com/noteghar/noteghar/internal/ctxkeys"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/service"
)

type ModerationHandler struct {
	noteService       *service.NoteService
	moderationService *service.ModerationService
}

func NewModerationHandler(noteService *service.NoteService, moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{
		noteService:       noteService,
		moderationService: moderationService,
	}
}

func (h *ModerationHandler) PendingNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.moderationService.PendingNotes(r.Context(), ctxkeys.User(r.Context()), r.URL.Query().Get("course_id"))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, notes)
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	note, err := h.noteService.Approve(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, note)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			RenderError(w, r, err)
			return
		}
	}

	note, err := h.noteService.Reject(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req.Reason)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, note)
}

func (h *ModerationHandler) PendingReports(w http.ResponseWriter, r *http.Request) {
	reason := model.ReportReason(r.URL.Query().Get("reason"))
	reports, err := h.moderationService.PendingReports(r.Context(), ctxkeys.User(r.Context()), reason)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, reports)
}

type reviewRequest struct {
	Notes      string `json:"notes"`
	RemoveNote bool   `json:"remove_note"`
}

func (h *ModerationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			RenderError(w, r, err)
			return
		}
	}

	report, err := h.moderationService.Resolve(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req.Notes, req.RemoveNote)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, report)
}

func (h *ModerationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			RenderError(w, r, err)
			return
		}
	}

	report, err := h.moderationService.Dismiss(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), req.Notes)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, report)
}

func (h *ModerationHandler) Warn(w http.ResponseWriter, r *http.Request) {
	var in model.Warning
	if err := decodeJSON(w, r, &in); err != nil {
		RenderError(w, r, err)
		return
	}

	action, err := h.moderationService.Warn(r.Context(), ctxkeys.User(r.Context()), in)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusCreated, action)
}

func (h *ModerationHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		RenderError(w, r, err)
		return
	}

	q := r.URL.Query()
	actions, err := h.moderationService.History(r.Context(), ctxkeys.User(r.Context()), model.ActionFilter{
		ModeratorID: q.Get("moderator_id"),
		ActionType:  model.ActionType(q.Get("action_type")),
		NoteID:      q.Get("note_id"),
		ReportID:    q.Get("report_id"),
		Limit:       limit,
	})
	if err != nil {
		RenderError(w, r, err)
		return
	}
	Render(w, http.StatusOK, actions)
}
