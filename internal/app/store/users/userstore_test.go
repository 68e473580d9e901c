package userstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func newStore(t *testing.T) (*Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return New(db), db
}

func TestStore_CreateNormalizes(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{
		FullName:     "  Ayşe \t Yılmaz ",
		Email:        "Ayse@Example.com ",
		Phone:        "0532  123  45 67",
		Company:      " Acme  Ltd ",
		Role:         " Admin",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	assert.False(t, u.ID.IsZero())
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	assert.Equal(t, "Ayşe Yılmaz", u.FullName)
	require.NotNil(t, u.LoginID)
	assert.Equal(t, "ayse@example.com", *u.LoginID)
	assert.Equal(t, u.LoginID, u.Email)
	require.NotNil(t, u.LoginIDCI)
	assert.Equal(t, "0532 123 45 67", u.Phone)
	assert.Equal(t, "Acme Ltd", u.Company)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "active", u.Status)
	require.NotNil(t, u.PasswordHash)

	stored, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.FullName, stored.FullName)
}

func TestStore_CreateDefaultsAndErrors(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{FullName: "Müşteri", Email: "musteri@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Nil(t, u.PasswordHash)

	_, err = s.Create(ctx, CreateInput{FullName: "X", Email: "x@example.com", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = s.Create(ctx, CreateInput{FullName: "İkinci", Email: "MUSTERI@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateLoginID)
}

func TestStore_LoginLookups(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := s.Create(ctx, CreateInput{FullName: "Giriş", Email: "giris@example.com"})
	require.NoError(t, err)

	u, err := s.GetByLoginID(ctx, "  GIRIS@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Giriş", u.FullName)

	_, err = s.GetByLoginID(ctx, "kimse@example.com")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	ok, err := s.ExistsByLoginID(ctx, "Giris@Example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ExistsByLoginID(ctx, "kimse@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.GetByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestStore_Update(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := s.Create(ctx, CreateInput{FullName: "Önce", Email: "once@example.com"})
	require.NoError(t, err)

	later := created.UpdatedAt.Add(time.Minute)
	s.now = func() time.Time { return later }

	require.NoError(t, s.Update(ctx, created.ID, UpdateInput{
		FullName: strPtr("Sonra"),
		Email:    strPtr("Sonra@Example.com"),
		Role:     strPtr("moderator"),
		Status:   strPtr("Disabled"),
	}))

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sonra", got.FullName)
	assert.Equal(t, "sonra@example.com", *got.LoginID)
	assert.Equal(t, "sonra@example.com", *got.Email)
	assert.Equal(t, models.RoleModerator, got.Role)
	assert.Equal(t, "disabled", got.Status)
	assert.WithinDuration(t, later, got.UpdatedAt, time.Millisecond)

	_, err = s.GetByLoginID(ctx, "once@example.com")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestStore_UpdateErrors(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := s.Create(ctx, CreateInput{FullName: "A", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{FullName: "B", Email: "b@example.com"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Update(ctx, a.ID, UpdateInput{Email: strPtr("B@example.com")}), ErrDuplicateLoginID)
	assert.ErrorIs(t, s.Update(ctx, a.ID, UpdateInput{Role: strPtr("root")}), ErrInvalidRole)
	assert.ErrorIs(t, s.Update(ctx, a.ID, UpdateInput{Status: strPtr("gone")}), ErrInvalidStatus)
	assert.ErrorIs(t, s.Update(ctx, primitive.NewObjectID(), UpdateInput{FullName: strPtr("x")}), ErrNotFound)
}

func TestStore_PasswordLoginAndDelete(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{FullName: "P", Email: "p@example.com"})
	require.NoError(t, err)

	require.NoError(t, s.SetPassword(ctx, u.ID, "newhash"))
	require.NoError(t, s.TouchLastLogin(ctx, u.ID))

	got, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "newhash", *got.PasswordHash)
	assert.NotNil(t, got.LastLoginAt)

	n, err := s.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = s.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_CountActiveAdmins(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a1, err := s.Create(ctx, CreateInput{FullName: "Admin 1", Email: "a1@example.com", Role: "admin"})
	require.NoError(t, err)
	a2, err := s.Create(ctx, CreateInput{FullName: "Admin 2", Email: "a2@example.com", Role: "admin"})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{FullName: "Editör", Email: "e@example.com", Role: "editor"})
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, a2.ID, UpdateInput{Status: strPtr("disabled")}))

	n, err := s.CountActiveAdmins(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.Update(ctx, a1.ID, UpdateInput{Role: strPtr("editor")}))
	n, err = s.CountActiveAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_List(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, in := range []CreateInput{
		{FullName: "Zeynep", Email: "zeynep@example.com", Role: "editor"},
		{FullName: "Ali", Email: "ali@example.com", Role: "admin"},
		{FullName: "Mehmet", Email: "mehmet@shop.com"},
	} {
		_, err := s.Create(ctx, in)
		require.NoError(t, err)
	}

	names := func(us []models.User) []string {
		out := make([]string, len(us))
		for i, u := range us {
			out[i] = u.FullName
		}
		return out
	}

	all, total, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"Ali", "Mehmet", "Zeynep"}, names(all))

	editors, total, err := s.List(ctx, ListFilter{Role: "EDITOR"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"Zeynep"}, names(editors))

	found, _, err := s.List(ctx, ListFilter{Search: " shop "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mehmet"}, names(found))

	found, _, err = s.List(ctx, ListFilter{Search: "a.i"})
	require.NoError(t, err)
	assert.Empty(t, found, "search terms are literal")

	page, total, err := s.List(ctx, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"Mehmet"}, names(page))

	none, total, err := s.List(ctx, ListFilter{Status: "disabled"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, none)
}

func TestListFilter_Limit(t *testing.T) {
	assert.EqualValues(t, defaultListLimit, ListFilter{}.limit())
	assert.EqualValues(t, 10, ListFilter{Limit: 10}.limit())
	assert.EqualValues(t, maxListLimit, ListFilter{Limit: 5000}.limit())
}

func TestStore_GetByIDs(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{FullName: "Tek", Email: "tek@example.com"})
	require.NoError(t, err)

	got, err := s.GetByIDs(ctx, []primitive.ObjectID{u.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, u.ID, got[0].ID)

	got, err = s.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetcher_FetchUser(t *testing.T) {
	s, db := newStore(t)
	fetcher := NewFetcher(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := s.Create(ctx, CreateInput{FullName: "Oturum", Email: "oturum@example.com", Role: "admin"})
	require.NoError(t, err)

	su := fetcher.FetchUser(ctx, u.ID.Hex())
	require.NotNil(t, su)
	assert.Equal(t, u.ID.Hex(), su.ID)
	assert.Equal(t, "Oturum", su.Name)
	assert.Equal(t, "oturum@example.com", su.LoginID)
	assert.Equal(t, "admin", su.Role)

	assert.Nil(t, fetcher.FetchUser(ctx, "invalid-id"))
	assert.Nil(t, fetcher.FetchUser(ctx, primitive.NewObjectID().Hex()))

	_, err = db.Collection("users").UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"status": "disabled"}})
	require.NoError(t, err)
	assert.Nil(t, fetcher.FetchUser(ctx, u.ID.Hex()), "disabled users have no session")
}
