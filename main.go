package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/mhaddad/feedback-assistant/app"
	"github.com/mhaddad/feedback-assistant/config"
	"github.com/mhaddad/feedback-assistant/database"
	"github.com/mhaddad/feedback-assistant/genai"
	"github.com/mhaddad/feedback-assistant/httpx"
	"github.com/mhaddad/feedback-assistant/log"
	"github.com/mhaddad/feedback-assistant/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := httpx.NewBearerServer(db, cfg)

	generator := genai.NewClient(genai.ClientConfig{
		BaseURL: cfg.GeminiBaseURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
	})

	app := app.New(db, bearerServer, cfg, generator)
	defer app.Sessions.Close()

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // generation calls can be slow
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
