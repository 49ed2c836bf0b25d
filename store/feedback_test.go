package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhaddad/feedback-assistant/database"
	"github.com/mhaddad/feedback-assistant/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testOwner(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	user, err := NewUserStore(db).Create(context.Background(), "owner@example.com", "s3cret-pass", "Owner")
	require.NoError(t, err)
	return user
}

func draftEntry(recipient, text string) model.FeedbackEntry {
	return model.FeedbackEntry{
		RecipientName: recipient,
		AuthorName:    "John Smith",
		Relationship:  "Manager",
		ModelType:     model.ModelSTAR,
		InputData: map[string]string{
			"situation_task": "Q3 report deadline",
			"action":         "stayed late",
			"result":         "delivered on time",
		},
		GeneratedText: text,
	}
}

func TestCreateAssignsIdentity(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	fs := NewFeedbackStore(db)

	created, err := fs.Create(context.Background(), draftEntry("Jane Doe", "the text"), owner.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.UpdatedAt)

	got, err := fs.Get(context.Background(), created.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.RecipientName)
	assert.Equal(t, model.ModelSTAR, got.ModelType)
	assert.Equal(t, created.InputData, got.InputData)
	assert.Equal(t, "the text", got.GeneratedText)
}

func TestListNewestFirst(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	fs := NewFeedbackStore(db)
	ctx := context.Background()

	for _, name := range []string{"First", "Second", "Third"} {
		_, err := fs.Create(ctx, draftEntry(name, "text"), owner.ID)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond) // distinct created_at
	}

	entries, err := fs.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Third", entries[0].RecipientName)
	assert.Equal(t, "Second", entries[1].RecipientName)
	assert.Equal(t, "First", entries[2].RecipientName)
	assert.True(t, entries[0].CreatedAt.After(entries[2].CreatedAt))
}

func TestListExcludesSoftDeleted(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	fs := NewFeedbackStore(db)
	ctx := context.Background()

	keep, err := fs.Create(ctx, draftEntry("Keep", "text"), owner.ID)
	require.NoError(t, err)
	gone, err := fs.Create(ctx, draftEntry("Gone", "text"), owner.ID)
	require.NoError(t, err)

	require.NoError(t, fs.SoftDelete(ctx, gone.ID, owner.ID))

	entries, err := fs.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].ID)

	_, err = fs.Get(ctx, gone.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// the row is hidden, not destroyed
	var deleted bool
	require.NoError(t, db.QueryRow("SELECT is_deleted FROM feedback WHERE id = ?", gone.ID).Scan(&deleted))
	assert.True(t, deleted)
}

func TestListScopedToOwner(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	other, err := NewUserStore(db).Create(context.Background(), "other@example.com", "s3cret-pass", "Other")
	require.NoError(t, err)

	fs := NewFeedbackStore(db)
	ctx := context.Background()

	mine, err := fs.Create(ctx, draftEntry("Mine", "text"), owner.ID)
	require.NoError(t, err)
	_, err = fs.Create(ctx, draftEntry("Theirs", "text"), other.ID)
	require.NoError(t, err)

	entries, err := fs.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mine", entries[0].RecipientName)

	// cross-owner access behaves as not found
	_, err = fs.Get(ctx, mine.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fs.SoftDelete(ctx, mine.ID, other.ID), ErrNotFound)
}

func TestUpdateGeneratedText(t *testing.T) {
	db := testDB(t)
	owner := testOwner(t, db)
	fs := NewFeedbackStore(db)
	ctx := context.Background()

	created, err := fs.Create(ctx, draftEntry("Jane", "original"), owner.ID)
	require.NoError(t, err)

	updated, err := fs.Update(ctx, created.ID, owner.ID, "polished")
	require.NoError(t, err)

	assert.Equal(t, "polished", updated.GeneratedText)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	_, err = fs.Update(ctx, "missing-id", owner.ID, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}
