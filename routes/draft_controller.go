package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mhaddad/feedback-assistant/app"
	"github.com/mhaddad/feedback-assistant/catalog"
	"github.com/mhaddad/feedback-assistant/httpx"
	"github.com/mhaddad/feedback-assistant/log"
	"github.com/mhaddad/feedback-assistant/model"
	"github.com/mhaddad/feedback-assistant/routes/middlewares"
	"github.com/mhaddad/feedback-assistant/workflow"
)

func OpenDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "draft.open.claims")
			return
		}

		session := app.Sessions.Open(user.ID)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, session.View())
	}
}

func GetDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, session.View())
	}
}

type selectModelRequest struct {
	Type model.FeedbackModelType `json:"type"`
}

func SelectDraftModel(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}

		req := selectModelRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "draft.select.parse_body")
			return
		}

		if err := session.Select(req.Type); err != nil {
			writeWorkflowError(w, "draft.select", err)
			return
		}
		render.JSON(w, r, session.View())
	}
}

func BackDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}

		if err := session.Back(); err != nil {
			writeWorkflowError(w, "draft.back", err)
			return
		}
		render.JSON(w, r, session.View())
	}
}

type draftInputsRequest struct {
	RecipientName string            `json:"recipientName"`
	Relationship  string            `json:"relationship"`
	InputData     map[string]string `json:"inputData"`
}

func SetDraftInputs(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}

		req := draftInputsRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "draft.inputs.parse_body")
			return
		}

		if err := session.SetInputs(req.RecipientName, req.Relationship, req.InputData); err != nil {
			writeWorkflowError(w, "draft.inputs", err)
			return
		}
		render.JSON(w, r, session.View())
	}
}

func GenerateDraft(app app.App) http.HandlerFunc {
	return generateDraft(app, "draft.generate")
}

// RegenerateDraft re-runs generation from the review step, overwriting any
// manual edits with the fresh result.
func RegenerateDraft(app app.App) http.HandlerFunc {
	return generateDraft(app, "draft.regenerate")
}

func generateDraft(app app.App, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, code+".claims")
			return
		}
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}

		err := session.Generate(r.Context(), app.Generator, user.Name)
		if err != nil {
			if isWorkflowGuard(err) {
				writeWorkflowError(w, code, err)
				return
			}
			// generation backend failure: the session already went back to
			// the input step with a retryable message and the draft intact
			log.Errorf("%s: %s", code, err)
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, session.View())
			return
		}

		render.JSON(w, r, session.View())
	}
}

type editTextRequest struct {
	Text string `json:"text"`
}

func EditDraftText(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}

		req := editTextRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "draft.text.parse_body")
			return
		}

		if err := session.Edit(req.Text); err != nil {
			writeWorkflowError(w, "draft.text", err)
			return
		}
		render.JSON(w, r, session.View())
	}
}

func SaveDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "draft.save.claims")
			return
		}
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}

		entry, err := session.Save(r.Context(), app.Feedbacks, user.Name)
		if err != nil {
			if isWorkflowGuard(err) {
				writeWorkflowError(w, "draft.save", err)
				return
			}
			// store failure: still reviewing, text and inputs preserved
			log.Errorf("draft.save: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, session.View())
			return
		}

		app.Sessions.Drop(session.ID, session.OwnerID)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, entry)
	}
}

func CancelDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := draftSession(app, w, r)
		if !ok {
			return
		}

		// abandonment is always allowed: the transition is best-effort,
		// the drop is what actually discards the draft
		_ = session.Cancel()
		app.Sessions.Drop(session.ID, session.OwnerID)

		w.WriteHeader(http.StatusNoContent)
	}
}

func draftSession(app app.App, w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	user, ok := middlewares.CurrentUser(r)
	if !ok {
		httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "draft.claims")
		return nil, false
	}

	session, err := app.Sessions.Get(chi.URLParam(r, "id"), user.ID)
	if err != nil {
		httpx.LogNotFound(w, "draft.session", chi.URLParam(r, "id"))
		return nil, false
	}
	return session, true
}

func isWorkflowGuard(err error) bool {
	return errors.Is(err, workflow.ErrBusy) ||
		errors.Is(err, workflow.ErrBadTransition) ||
		errors.Is(err, workflow.ErrNotReady) ||
		errors.Is(err, workflow.ErrUnknownField) ||
		errors.Is(err, catalog.ErrNotFound)
}

func writeWorkflowError(w http.ResponseWriter, code string, err error) {
	status := http.StatusConflict
	switch {
	case errors.Is(err, workflow.ErrUnknownField), errors.Is(err, catalog.ErrNotFound):
		status = http.StatusBadRequest
	}
	httpx.LogStatusMsg(w, status, log.DebugLevel, code, "%s", err)
}
