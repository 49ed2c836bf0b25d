package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhaddad/feedback-assistant/app"
	"github.com/mhaddad/feedback-assistant/config"
	"github.com/mhaddad/feedback-assistant/database"
	"github.com/mhaddad/feedback-assistant/genai"
	"github.com/mhaddad/feedback-assistant/httpx"
	"github.com/mhaddad/feedback-assistant/model"
	"github.com/mhaddad/feedback-assistant/workflow"
)

type generatorFunc func(ctx context.Context, req genai.Request) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req genai.Request) (string, error) {
	return f(ctx, req)
}

func testServer(t *testing.T, gen genai.Generator) *httptest.Server {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		DBUrl:       "test.sqlite",
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
	}
	a := app.New(db, httpx.NewBearerServer(db, cfg), cfg, gen)
	t.Cleanup(a.Sessions.Close)

	server := httptest.NewServer(Wire(a))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("content-type", "application/json")
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := &bytes.Buffer{}
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func signupAndLogin(t *testing.T, base string) string {
	t.Helper()

	resp, _ := doJSON(t, "POST", base+"/api/signup", "", map[string]string{
		"email":    "john@example.com",
		"password": "long-enough-pass",
		"name":     "John Smith",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest("POST", base+"/api/login", nil)
	require.NoError(t, err)
	req.SetBasicAuth("john@example.com", "long-enough-pass")

	loginResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer loginResp.Body.Close()
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&tokens))
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}

func TestListModels(t *testing.T) {
	server := testServer(t, nil)

	resp, body := doJSON(t, "GET", server.URL+"/api/models", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Models []model.FeedbackModelDef `json:"models"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Models, 4)
	assert.Equal(t, model.ModelSBI, payload.Models[0].Type)
}

func TestAPIRejectsAnonymousCalls(t *testing.T) {
	server := testServer(t, nil)

	resp, _ := doJSON(t, "GET", server.URL+"/api/feedbacks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, "POST", server.URL+"/api/drafts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupDuplicateEmail(t *testing.T) {
	server := testServer(t, nil)
	_ = signupAndLogin(t, server.URL)

	resp, _ := doJSON(t, "POST", server.URL+"/api/signup", "", map[string]string{
		"email":    "john@example.com",
		"password": "long-enough-pass",
		"name":     "John Again",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreationScenario(t *testing.T) {
	generated := "Jane stayed late ensuring the Q3 report..."
	server := testServer(t, generatorFunc(func(_ context.Context, req genai.Request) (string, error) {
		assert.Contains(t, req.Prompt, "Recipient: Jane Doe")
		assert.Contains(t, req.SystemInstruction, "John Smith giving feedback to Jane Doe (Manager)")
		return generated, nil
	}))
	token := signupAndLogin(t, server.URL)

	// open a creation session
	resp, body := doJSON(t, "POST", server.URL+"/api/drafts", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view workflow.View
	require.NoError(t, json.Unmarshal(body, &view))
	require.NotEmpty(t, view.ID)
	assert.Equal(t, workflow.SelectingModel, view.State)
	draftURL := server.URL + "/api/drafts/" + view.ID

	// select STAR
	resp, body = doJSON(t, "POST", draftURL+"/model", token, map[string]string{"type": "STAR"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, workflow.EnteringInputs, view.State)

	// fill in the draft
	resp, _ = doJSON(t, "PUT", draftURL+"/inputs", token, map[string]any{
		"recipientName": "Jane Doe",
		"relationship":  "Manager",
		"inputData": map[string]string{
			"situation_task": "Q3 report deadline",
			"action":         "stayed late",
			"result":         "delivered on time",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// generate
	resp, body = doJSON(t, "POST", draftURL+"/generate", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, workflow.Reviewing, view.State)
	assert.Equal(t, generated, view.Draft.GeneratedText)

	// save
	resp, body = doJSON(t, "POST", draftURL+"/save", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry model.FeedbackEntry
	require.NoError(t, json.Unmarshal(body, &entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, "John Smith", entry.AuthorName)
	assert.Equal(t, generated, entry.GeneratedText)

	// the session is gone once saved
	resp, _ = doJSON(t, "GET", draftURL, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the new entry shows up first in the list
	resp, body = doJSON(t, "GET", server.URL+"/api/feedbacks", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Feedbacks []model.FeedbackEntry `json:"feedbacks"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Len(t, listing.Feedbacks, 1)
	assert.Equal(t, entry.ID, listing.Feedbacks[0].ID)
}

func TestGenerationFailureKeepsDraft(t *testing.T) {
	server := testServer(t, generatorFunc(func(context.Context, genai.Request) (string, error) {
		return "", errors.New("backend down")
	}))
	token := signupAndLogin(t, server.URL)

	_, body := doJSON(t, "POST", server.URL+"/api/drafts", token, nil)
	var view workflow.View
	require.NoError(t, json.Unmarshal(body, &view))
	draftURL := server.URL + "/api/drafts/" + view.ID

	resp, _ := doJSON(t, "POST", draftURL+"/model", token, map[string]string{"type": "SBI"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, "PUT", draftURL+"/inputs", token, map[string]any{
		"recipientName": "Jane",
		"relationship":  "Colleague",
		"inputData":     map[string]string{"situation": "weekly sync"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, "POST", draftURL+"/generate", token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, workflow.EnteringInputs, view.State)
	assert.Equal(t, "Something went wrong while generating feedback. Please try again.", view.Error)
	assert.Equal(t, "weekly sync", view.Draft.InputData["situation"])
}

func TestGenerateGuardRejected(t *testing.T) {
	server := testServer(t, generatorFunc(func(context.Context, genai.Request) (string, error) {
		t.Error("generator must not be called")
		return "", nil
	}))
	token := signupAndLogin(t, server.URL)

	_, body := doJSON(t, "POST", server.URL+"/api/drafts", token, nil)
	var view workflow.View
	require.NoError(t, json.Unmarshal(body, &view))
	draftURL := server.URL + "/api/drafts/" + view.ID

	resp, _ := doJSON(t, "POST", draftURL+"/model", token, map[string]string{"type": "SBI"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// no recipient, no inputs
	resp, _ = doJSON(t, "POST", draftURL+"/generate", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSearchFilter(t *testing.T) {
	server := testServer(t, generatorFunc(func(_ context.Context, req genai.Request) (string, error) {
		return "narrative text", nil
	}))
	token := signupAndLogin(t, server.URL)

	for _, recipient := range []string{"Jane Doe", "Bob Roe"} {
		_, body := doJSON(t, "POST", server.URL+"/api/drafts", token, nil)
		var view workflow.View
		require.NoError(t, json.Unmarshal(body, &view))
		draftURL := server.URL + "/api/drafts/" + view.ID

		resp, _ := doJSON(t, "POST", draftURL+"/model", token, map[string]string{"type": "SBI"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = doJSON(t, "PUT", draftURL+"/inputs", token, map[string]any{
			"recipientName": recipient,
			"relationship":  "Colleague",
			"inputData":     map[string]string{"situation": "sync"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = doJSON(t, "POST", draftURL+"/generate", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = doJSON(t, "POST", draftURL+"/save", token, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, "GET", server.URL+"/api/feedbacks?q=jane", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Feedbacks []model.FeedbackEntry `json:"feedbacks"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Len(t, listing.Feedbacks, 1)
	assert.Equal(t, "Jane Doe", listing.Feedbacks[0].RecipientName)

	// matches generated text too
	resp, body = doJSON(t, "GET", server.URL+"/api/feedbacks?q=NARRATIVE", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Len(t, listing.Feedbacks, 2)
}

func TestLogoutDiscardsDrafts(t *testing.T) {
	server := testServer(t, nil)
	token := signupAndLogin(t, server.URL)

	_, body := doJSON(t, "POST", server.URL+"/api/drafts", token, nil)
	var view workflow.View
	require.NoError(t, json.Unmarshal(body, &view))

	resp, _ := doJSON(t, "POST", server.URL+"/api/logout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, "GET", server.URL+"/api/drafts/"+view.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteFeedbackHidesIt(t *testing.T) {
	server := testServer(t, generatorFunc(func(context.Context, genai.Request) (string, error) {
		return "text", nil
	}))
	token := signupAndLogin(t, server.URL)

	_, body := doJSON(t, "POST", server.URL+"/api/drafts", token, nil)
	var view workflow.View
	require.NoError(t, json.Unmarshal(body, &view))
	draftURL := server.URL + "/api/drafts/" + view.ID

	resp, _ := doJSON(t, "POST", draftURL+"/model", token, map[string]string{"type": "SBI"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, "PUT", draftURL+"/inputs", token, map[string]any{
		"recipientName": "Jane",
		"relationship":  "Colleague",
		"inputData":     map[string]string{"situation": "sync"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, "POST", draftURL+"/generate", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = doJSON(t, "POST", draftURL+"/save", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry model.FeedbackEntry
	require.NoError(t, json.Unmarshal(body, &entry))

	resp, _ = doJSON(t, "DELETE", server.URL+"/api/feedbacks/"+entry.ID, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, "GET", server.URL+"/api/feedbacks/"+entry.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
