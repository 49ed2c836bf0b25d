package model

import "time"

type FeedbackModelType string

const (
	ModelSBI  FeedbackModelType = "SBI"
	ModelPPP  FeedbackModelType = "3P"
	ModelSTAR FeedbackModelType = "STAR"
	ModelCNV  FeedbackModelType = "CNV"
)

// FeedbackField is one input slot of a feedback model.
// Declaration order matters: it drives both form rendering and prompt construction.
type FeedbackField struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Description string `json:"description"`
	Optional    bool   `json:"isOptional,omitempty"`
}

type FeedbackModelDef struct {
	Type        FeedbackModelType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Fields      []FeedbackField   `json:"fields"`
}

// FeedbackEntry is a persisted unit of generated feedback.
// ID, CreatedAt and UpdatedAt are assigned by the store, never by callers.
type FeedbackEntry struct {
	ID            string            `json:"id,omitempty"`
	RecipientName string            `json:"recipientName"`
	AuthorName    string            `json:"authorName"`
	Relationship  string            `json:"relationship"`
	ModelType     FeedbackModelType `json:"modelType"`
	InputData     map[string]string `json:"inputData"`
	GeneratedText string            `json:"generatedText"`
	CreatedAt     time.Time         `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time        `json:"updatedAt,omitempty"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
