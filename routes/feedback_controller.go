package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mhaddad/feedback-assistant/app"
	"github.com/mhaddad/feedback-assistant/httpx"
	"github.com/mhaddad/feedback-assistant/log"
	"github.com/mhaddad/feedback-assistant/model"
	"github.com/mhaddad/feedback-assistant/routes/middlewares"
	"github.com/mhaddad/feedback-assistant/store"
)

// ListFeedbacks returns the caller's entries newest first. An optional ?q=
// filters by case-insensitive substring on recipient name or generated text.
func ListFeedbacks(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "feedbacks.claims")
			return
		}

		entries, err := app.Feedbacks.List(r.Context(), user.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_feedbacks", err)
			return
		}

		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			entries = filterEntries(entries, q)
		}

		render.JSON(w, r, map[string]any{
			"feedbacks": entries,
		})
	}
}

func filterEntries(entries []model.FeedbackEntry, q string) []model.FeedbackEntry {
	q = strings.ToLower(q)
	matched := []model.FeedbackEntry{}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.RecipientName), q) ||
			strings.Contains(strings.ToLower(e.GeneratedText), q) {
			matched = append(matched, e)
		}
	}
	return matched
}

func GetFeedback(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "feedback.claims")
			return
		}

		id := chi.URLParam(r, "id")
		entry, err := app.Feedbacks.Get(r.Context(), id, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "get_feedback", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_feedback", err)
			return
		}

		render.JSON(w, r, entry)
	}
}

type updateFeedbackRequest struct {
	GeneratedText string `json:"generatedText"`
}

func UpdateFeedback(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "feedback.claims")
			return
		}

		req := updateFeedbackRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "update_feedback.parse_body")
			return
		}
		if strings.TrimSpace(req.GeneratedText) == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_feedback.text", "feedback text cannot be empty")
			return
		}

		id := chi.URLParam(r, "id")
		entry, err := app.Feedbacks.Update(r.Context(), id, user.ID, req.GeneratedText)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "update_feedback", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_feedback", err)
			return
		}

		render.JSON(w, r, entry)
	}
}

func DeleteFeedback(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "feedback.claims")
			return
		}

		id := chi.URLParam(r, "id")
		err := app.Feedbacks.SoftDelete(r.Context(), id, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "delete_feedback", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_feedback", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
