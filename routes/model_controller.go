package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mhaddad/feedback-assistant/catalog"
)

func ListModels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"models": catalog.List(),
		})
	}
}
