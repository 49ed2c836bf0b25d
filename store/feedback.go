// Package store persists accounts and feedback entries in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mhaddad/feedback-assistant/model"
)

var ErrNotFound = errors.New("not found")

type FeedbackStore struct {
	db *sql.DB
}

func NewFeedbackStore(db *sql.DB) *FeedbackStore {
	return &FeedbackStore{db}
}

// Create assigns identity and creation timestamp to a draft entry and
// persists it, scoped to its owner.
func (fs *FeedbackStore) Create(ctx context.Context, entry model.FeedbackEntry, ownerID string) (model.FeedbackEntry, error) {
	inputsJson, err := json.Marshal(entry.InputData)
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("store.create_feedback.marshal: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = nil

	_, err = fs.db.ExecContext(ctx, `
		INSERT INTO feedback
			(id, user_id, colleague_name, relation, model, model_data, generated_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		ownerID,
		entry.RecipientName,
		entry.Relationship,
		string(entry.ModelType),
		string(inputsJson),
		entry.GeneratedText,
		entry.CreatedAt,
	)
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("store.create_feedback: %w", err)
	}

	return entry, nil
}

// List returns the owner's entries, newest first, excluding soft-deleted ones.
func (fs *FeedbackStore) List(ctx context.Context, ownerID string) ([]model.FeedbackEntry, error) {
	rows, err := fs.db.QueryContext(ctx, `
		SELECT id, colleague_name, relation, model, model_data, generated_text, created_at, updated_at
		FROM feedback
		WHERE user_id = ?
			AND NOT is_deleted
		ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("store.list_feedbacks: %w", err)
	}
	defer rows.Close()

	entries := []model.FeedbackEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("store.list_feedbacks.scan: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (fs *FeedbackStore) Get(ctx context.Context, id, ownerID string) (model.FeedbackEntry, error) {
	rows, err := fs.db.QueryContext(ctx, `
		SELECT id, colleague_name, relation, model, model_data, generated_text, created_at, updated_at
		FROM feedback
		WHERE id = ?
			AND user_id = ?
			AND NOT is_deleted`,
		id,
		ownerID,
	)
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("store.get_feedback: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return model.FeedbackEntry{}, fmt.Errorf("%w: feedback %s", ErrNotFound, id)
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("store.get_feedback.scan: %w", err)
	}
	return entry, nil
}

// Update replaces the generated text of an existing entry and bumps updated_at.
func (fs *FeedbackStore) Update(ctx context.Context, id, ownerID, generatedText string) (model.FeedbackEntry, error) {
	res, err := fs.db.ExecContext(ctx, `
		UPDATE feedback
		SET
			generated_text = ?,
			updated_at = ?
		WHERE id = ?
			AND user_id = ?
			AND NOT is_deleted`,
		generatedText,
		time.Now().UTC(),
		id,
		ownerID,
	)
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("store.update_feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("store.update_feedback.verify: %w", err)
	}
	if n < 1 {
		return model.FeedbackEntry{}, fmt.Errorf("%w: feedback %s", ErrNotFound, id)
	}

	return fs.Get(ctx, id, ownerID)
}

// SoftDelete hides an entry from listings without destroying the row.
func (fs *FeedbackStore) SoftDelete(ctx context.Context, id, ownerID string) error {
	res, err := fs.db.ExecContext(ctx, `
		UPDATE feedback
		SET
			is_deleted = TRUE,
			updated_at = ?
		WHERE id = ?
			AND user_id = ?
			AND NOT is_deleted`,
		time.Now().UTC(),
		id,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("store.delete_feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store.delete_feedback.verify: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("%w: feedback %s", ErrNotFound, id)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (entry model.FeedbackEntry, err error) {
	var modelType, inputsJson string
	var updatedAt sql.NullTime
	err = rows.Scan(
		&entry.ID,
		&entry.RecipientName,
		&entry.Relationship,
		&modelType,
		&inputsJson,
		&entry.GeneratedText,
		&entry.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return
	}

	entry.ModelType = model.FeedbackModelType(modelType)
	if updatedAt.Valid {
		t := updatedAt.Time
		entry.UpdatedAt = &t
	}
	err = json.Unmarshal([]byte(inputsJson), &entry.InputData)
	return
}
