package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/mhaddad/feedback-assistant/auth"
	"github.com/mhaddad/feedback-assistant/config"
	"github.com/mhaddad/feedback-assistant/genai"
	"github.com/mhaddad/feedback-assistant/store"
	"github.com/mhaddad/feedback-assistant/workflow"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Users     *store.UserStore
	Feedbacks *store.FeedbackStore
	Generator genai.Generator
	Sessions  *workflow.Manager
	Notifier  *auth.Notifier
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config, generator genai.Generator) App {
	notifier := auth.NewNotifier()
	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Users:        store.NewUserStore(db),
		Feedbacks:    store.NewFeedbackStore(db),
		Generator:    generator,
		Sessions:     workflow.NewManager(notifier),
		Notifier:     notifier,
	}
}
