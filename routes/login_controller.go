package routes

import (
	"errors"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/mhaddad/feedback-assistant/app"
	"github.com/mhaddad/feedback-assistant/auth"
	"github.com/mhaddad/feedback-assistant/httpx"
	"github.com/mhaddad/feedback-assistant/log"
	"github.com/mhaddad/feedback-assistant/routes/middlewares"
	"github.com/mhaddad/feedback-assistant/store"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func Signup(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := signupRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "signup.parse_body")
			return
		}

		if _, err := mail.ParseAddress(req.Email); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "signup.email", "invalid email address")
			return
		}
		if len(req.Password) < 8 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "signup.password", "password must be at least 8 characters")
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = strings.Split(req.Email, "@")[0]
		}

		user, err := app.Users.Create(r.Context(), req.Email, req.Password, name)
		if errors.Is(err, store.ErrEmailTaken) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "signup.email_taken", "email already registered")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.create_user", err)
			return
		}

		app.Notifier.Publish(auth.Event{Kind: auth.SignedIn, UserID: user.ID})

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, user)
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, r)
		if resp.Status() == http.StatusOK {
			if account, err := app.Users.GetByEmail(r.Context(), user); err == nil {
				app.Notifier.Publish(auth.Event{Kind: auth.SignedIn, UserID: account.ID})
			}
		}
		resp.Flush(w)
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("authorization")
		match := regexp.MustCompile(`(?i)^refresh\s+(.*)`).FindStringSubmatch(authHeader)
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}

		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogStatus(w, http.StatusInternalServerError, log.DebugLevel, "refresh.new_request")
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}

// Logout announces the sign-out so live creation sessions get discarded.
// The client is expected to drop its tokens; the access token itself stays
// valid until it expires.
func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "logout.claims")
			return
		}

		app.Notifier.Publish(auth.Event{Kind: auth.SignedOut, UserID: user.ID})
		w.WriteHeader(http.StatusNoContent)
	}
}

func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.CurrentUser(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "me.claims")
			return
		}
		render.JSON(w, r, user)
	}
}
