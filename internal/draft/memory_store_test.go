package draft

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	sessionID := uuid.New()

	d := &Draft{
		SessionId:     sessionID,
		QuestionOrder: 3,
		Text:          "my partial answer",
		SavedAt:       time.Now(),
	}
	assert.NoError(t, store.Save(ctx, d))

	got, err := store.Get(ctx, sessionID)
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "my partial answer", got.Text)
	assert.Equal(t, 3, got.QuestionOrder)
}

func TestMemoryStoreOverwritesSingleSlot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	sessionID := uuid.New()

	assert.NoError(t, store.Save(ctx, &Draft{SessionId: sessionID, QuestionOrder: 1, Text: "first"}))
	assert.NoError(t, store.Save(ctx, &Draft{SessionId: sessionID, QuestionOrder: 2, Text: "second"}))

	got, err := store.Get(ctx, sessionID)
	assert.NoError(t, err)
	assert.Equal(t, "second", got.Text)
	assert.Equal(t, 2, got.QuestionOrder)
}

func TestMemoryStoreGetMissingReturnsNil(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.Get(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	sessionID := uuid.New()

	assert.NoError(t, store.Save(ctx, &Draft{SessionId: sessionID, Text: "pending"}))
	assert.NoError(t, store.Clear(ctx, sessionID))

	got, err := store.Get(ctx, sessionID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// Clearing an already-empty slot is a no-op
	assert.NoError(t, store.Clear(ctx, sessionID))
}

func TestMemoryStoreSaveCopiesDraft(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	sessionID := uuid.New()

	d := &Draft{SessionId: sessionID, Text: "original"}
	assert.NoError(t, store.Save(ctx, d))
	d.Text = "mutated after save"

	got, _ := store.Get(ctx, sessionID)
	assert.Equal(t, "original", got.Text)
}
