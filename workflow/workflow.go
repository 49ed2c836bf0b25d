// Package workflow drives a single feedback-creation session through
// model selection, field input, generation, review and save.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mhaddad/feedback-assistant/catalog"
	"github.com/mhaddad/feedback-assistant/genai"
	"github.com/mhaddad/feedback-assistant/model"
)

type State string

const (
	SelectingModel State = "selecting_model"
	EnteringInputs State = "entering_inputs"
	Generating     State = "generating"
	Reviewing      State = "reviewing"
	Saved          State = "saved"
	Cancelled      State = "cancelled"
)

var (
	// ErrBadTransition signals an action that is not legal in the current state.
	ErrBadTransition = errors.New("action not allowed in current state")
	// ErrNotReady signals a guard failure: the draft is not filled in enough.
	ErrNotReady = errors.New("draft not ready")
	// ErrBusy signals that a generation or save call is already in flight.
	ErrBusy = errors.New("session is busy")
	// ErrUnknownField signals an input keyed by a field id the model does not declare.
	ErrUnknownField = errors.New("unknown input field")
)

// User-facing messages for retryable failures. The draft is preserved in both cases.
const (
	generateFailedMessage = "Something went wrong while generating feedback. Please try again."
	saveFailedMessage     = "Could not save your feedback. Please try again."
)

// Draft is the mutable scratch state of an in-progress session.
// It is never persisted; it is discarded on cancel or converted into a
// FeedbackEntry on save.
type Draft struct {
	ModelType     model.FeedbackModelType `json:"modelType,omitempty"`
	RecipientName string                  `json:"recipientName"`
	Relationship  string                  `json:"relationship"`
	InputData     map[string]string       `json:"inputData"`
	GeneratedText string                  `json:"generatedText,omitempty"`
}

// EntrySaver persists a finished draft, assigning identity and timestamps.
type EntrySaver interface {
	Create(ctx context.Context, entry model.FeedbackEntry, ownerID string) (model.FeedbackEntry, error)
}

// Session owns one creation workflow. All methods are safe for concurrent
// use, but the session admits only one outstanding generate or save call
// at a time: concurrent attempts fail with ErrBusy.
type Session struct {
	ID      string
	OwnerID string

	mu      sync.Mutex
	busy    bool
	state   State
	draft   Draft
	lastErr string
	saved   *model.FeedbackEntry
}

func newSession(id, ownerID string) *Session {
	return &Session{
		ID:      id,
		OwnerID: ownerID,
		state:   SelectingModel,
		draft:   Draft{InputData: map[string]string{}},
	}
}

// View is a consistent snapshot of a session for rendering.
type View struct {
	ID    string               `json:"id"`
	State State                `json:"state"`
	Draft Draft                `json:"draft"`
	Error string               `json:"error,omitempty"`
	Entry *model.FeedbackEntry `json:"entry,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:    s.ID,
		State: s.state,
		Draft: s.draft,
		Error: s.lastErr,
		Entry: s.saved,
	}
	v.Draft.InputData = copyInputs(s.draft.InputData)
	return v
}

// Select picks a feedback model and moves on to field input.
// Any inputs entered for a previously abandoned model are cleared.
func (s *Session) Select(t model.FeedbackModelType) error {
	if _, err := catalog.Get(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	if s.state != SelectingModel {
		return fmt.Errorf("%w: select in %s", ErrBadTransition, s.state)
	}

	s.draft.ModelType = t
	s.draft.InputData = map[string]string{}
	s.draft.GeneratedText = ""
	s.state = EnteringInputs
	return nil
}

// Back returns to the previous step: input -> model selection,
// review -> input. The draft is kept; inputs are only cleared by
// the next Select.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	switch s.state {
	case EnteringInputs:
		s.state = SelectingModel
	case Reviewing:
		s.state = EnteringInputs
	default:
		return fmt.Errorf("%w: back in %s", ErrBadTransition, s.state)
	}
	return nil
}

// SetInputs replaces the draft's recipient, relationship and field values.
// Keys must belong to the selected model; empty values are dropped so the
// generation guard only counts real answers.
func (s *Session) SetInputs(recipientName, relationship string, inputs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	if s.state != EnteringInputs {
		return fmt.Errorf("%w: set inputs in %s", ErrBadTransition, s.state)
	}

	def, err := catalog.Get(s.draft.ModelType)
	if err != nil {
		return err
	}
	known := map[string]bool{}
	for _, f := range def.Fields {
		known[f.ID] = true
	}

	clean := map[string]string{}
	for id, value := range inputs {
		if !known[id] {
			return fmt.Errorf("%w: %q", ErrUnknownField, id)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		clean[id] = value
	}

	s.draft.RecipientName = strings.TrimSpace(recipientName)
	s.draft.Relationship = relationship
	s.draft.InputData = clean
	return nil
}

// Generate builds the generation request from the current draft and invokes
// the generator. From Reviewing this is a regenerate: the previous text,
// including manual edits, is deliberately overwritten on success.
// On failure the session returns to EnteringInputs with a retryable message
// and the draft untouched.
func (s *Session) Generate(ctx context.Context, gen genai.Generator, authorName string) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != EnteringInputs && s.state != Reviewing {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: generate in %s", ErrBadTransition, state)
	}
	if s.draft.RecipientName == "" || len(s.draft.InputData) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: recipient and at least one input are required", ErrNotReady)
	}

	req, err := genai.BuildRequest(
		s.draft.RecipientName, authorName, s.draft.Relationship,
		s.draft.ModelType, copyInputs(s.draft.InputData),
	)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.busy = true
	s.state = Generating
	s.mu.Unlock()

	text, err := gen.Generate(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil {
		s.state = EnteringInputs
		s.lastErr = generateFailedMessage
		return fmt.Errorf("workflow.generate: %w", err)
	}

	s.draft.GeneratedText = text
	s.lastErr = ""
	s.state = Reviewing
	return nil
}

// Edit replaces the generated text in place while reviewing. No validation.
func (s *Session) Edit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	if s.state != Reviewing {
		return fmt.Errorf("%w: edit in %s", ErrBadTransition, s.state)
	}
	s.draft.GeneratedText = text
	return nil
}

// Save hands the finished draft to the saver. The author name is the current
// user's display name at save time. On saver failure the session stays in
// Reviewing with a retryable message; text and inputs are preserved.
func (s *Session) Save(ctx context.Context, saver EntrySaver, authorName string) (model.FeedbackEntry, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return model.FeedbackEntry{}, ErrBusy
	}
	if s.state != Reviewing {
		state := s.state
		s.mu.Unlock()
		return model.FeedbackEntry{}, fmt.Errorf("%w: save in %s", ErrBadTransition, state)
	}
	if s.draft.ModelType == "" || strings.TrimSpace(s.draft.GeneratedText) == "" {
		s.mu.Unlock()
		return model.FeedbackEntry{}, fmt.Errorf("%w: nothing to save", ErrNotReady)
	}

	entry := model.FeedbackEntry{
		RecipientName: s.draft.RecipientName,
		AuthorName:    authorName,
		Relationship:  s.draft.Relationship,
		ModelType:     s.draft.ModelType,
		InputData:     copyInputs(s.draft.InputData),
		GeneratedText: s.draft.GeneratedText,
	}
	ownerID := s.OwnerID

	s.busy = true
	s.mu.Unlock()

	stored, err := saver.Create(ctx, entry, ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil {
		s.lastErr = saveFailedMessage
		return model.FeedbackEntry{}, fmt.Errorf("workflow.save: %w", err)
	}

	s.lastErr = ""
	s.saved = &stored
	s.state = Saved
	return stored, nil
}

// Cancel discards the draft before anything was generated or saved.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	switch s.state {
	case SelectingModel, EnteringInputs:
		s.state = Cancelled
		return nil
	default:
		return fmt.Errorf("%w: cancel in %s", ErrBadTransition, s.state)
	}
}

func copyInputs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
