package messages

import (
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func names(ms []models.Message) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func TestStore_CreateListMarkRead(t *testing.T) {
	s := New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }
	first, err := s.Create(ctx, CreateInput{Name: "Ali", Email: "ali@example.com", Subject: "Teklif", Body: "Merhaba"})
	require.NoError(t, err)
	assert.False(t, first.Read)
	assert.True(t, at.Equal(first.CreatedAt))

	at = at.Add(time.Hour)
	_, err = s.Create(ctx, CreateInput{Name: "Veli", Email: "veli@example.com", Body: "Fiyat?"})
	require.NoError(t, err)

	all, err := s.List(ctx, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Veli", "Ali"}, names(all))
	assert.Equal(t, "Teklif", all[1].Subject)

	require.NoError(t, s.MarkRead(ctx, first.ID))
	require.NoError(t, s.MarkRead(ctx, first.ID))

	unread, err := s.List(ctx, true, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Veli"}, names(unread))

	n, err := s.CountUnread(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	one, err := s.List(ctx, false, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Veli"}, names(one))
}

func TestStore_Delete(t *testing.T) {
	s := New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := s.Create(ctx, CreateInput{Name: "Ali", Email: "ali@example.com", Body: "x"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, m.ID))
	assert.ErrorIs(t, s.Delete(ctx, m.ID), ErrNotFound)
	assert.ErrorIs(t, s.MarkRead(ctx, primitive.NewObjectID()), ErrNotFound)

	empty, err := s.List(ctx, false, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
