package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mhaddad/feedback-assistant/app"
	"github.com/mhaddad/feedback-assistant/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer)).
		Mount("/app", servePrivateFiles("/app"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/signup", Signup(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Get("/models", ListModels())

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))

		r.Post("/logout", Logout(app))
		r.Get("/me", Me())

		// creation workflow sessions
		r.Post("/drafts", OpenDraft(app))
		r.Route("/drafts/{id}", func(r chi.Router) {
			r.Get("/", GetDraft(app))
			r.Delete("/", CancelDraft(app))
			r.Post("/model", SelectDraftModel(app))
			r.Post("/back", BackDraft(app))
			r.Put("/inputs", SetDraftInputs(app))
			r.Post("/generate", GenerateDraft(app))
			r.Post("/text", EditDraftText(app))
			r.Post("/regenerate", RegenerateDraft(app))
			r.Post("/save", SaveDraft(app))
		})

		// persisted entries
		r.Get("/feedbacks", ListFeedbacks(app))
		r.Get("/feedbacks/{id}", GetFeedback(app))
		r.Put("/feedbacks/{id}", UpdateFeedback(app))
		r.Delete("/feedbacks/{id}", DeleteFeedback(app))
	})

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
