package seeding

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/store/pagemem"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultPages_AreComplete(t *testing.T) {
	pages, err := DefaultPages()
	require.NoError(t, err)
	require.Len(t, pages, len(content.AllPageNames()))

	for _, p := range pages {
		assert.NotEmpty(t, p.Title, "page %s", p.PageName)
		require.NotEmpty(t, p.Sections, "page %s", p.PageName)
		for i, s := range p.Ordered() {
			assert.Equal(t, i+1, s.Order)
			assert.Empty(t, content.CheckRequired(s), "section %s/%s", p.PageName, s.ID)
		}
	}
}

func TestDefaultPages_PricingMirrorsCatalog(t *testing.T) {
	pages, err := DefaultPages()
	require.NoError(t, err)

	var services content.PageContent
	for _, p := range pages {
		if p.PageName == content.PageServices {
			services = p
		}
	}
	var pricing content.Pricing
	for _, s := range services.Sections {
		if s.Type == content.TypePricing {
			pricing = content.Decode(s).(content.Pricing)
		}
	}
	require.Len(t, pricing.Plans, 3)
	assert.Equal(t, "Başlangıç", pricing.Plans[0].Title)
	assert.Equal(t, "2999", pricing.Plans[0].Price)
	assert.True(t, pricing.Plans[1].Featured)
	assert.False(t, pricing.Plans[2].Featured)
}

func TestSeedPages_OnlyMissing(t *testing.T) {
	existing, err := content.NewPage(content.PageAbout, "Özel Başlık", "", nil)
	require.NoError(t, err)
	mem := pagemem.New(existing)
	ctx := context.Background()

	created, err := SeedPages(ctx, mem, zap.NewNop())
	require.NoError(t, err)
	assert.ElementsMatch(t, []content.PageName{content.PageHome, content.PageServices, content.PageContact}, created)

	about, err := mem.Get(ctx, content.PageAbout)
	require.NoError(t, err)
	assert.Equal(t, "Özel Başlık", about.Title, "existing pages are left alone")

	created, err = SeedPages(ctx, mem, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestSeedPages_RepositoryDown(t *testing.T) {
	mem := pagemem.New()
	mem.Fail(pagemem.OpGet, errors.New("offline"))

	_, err := SeedPages(context.Background(), mem, zap.NewNop())
	assert.ErrorIs(t, err, content.ErrRepositoryUnavailable)
	assert.Zero(t, mem.Calls(pagemem.OpCreate))
}

func TestSeedAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed := AdminSeed{Email: "Admin@Example.com", Password: "correct-horse-battery"}
	if err := SeedAdmin(ctx, users, seed, zap.NewNop()); err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}

	u, err := users.GetByLoginID(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetByLoginID() error = %v", err)
	}
	if u.Role != "admin" {
		t.Errorf("Role = %q, want admin", u.Role)
	}
	if u.PasswordHash == nil || !authutil.CheckPassword(seed.Password, *u.PasswordHash) {
		t.Error("seeded password does not verify")
	}

	// Second run is a no-op.
	if err := SeedAdmin(ctx, users, seed, zap.NewNop()); err != nil {
		t.Fatalf("second SeedAdmin() error = %v", err)
	}
	n, _ := users.CountActiveAdmins(ctx)
	if n != 1 {
		t.Errorf("CountActiveAdmins() = %d, want 1", n)
	}
}

func TestSeedAdmin_WeakPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := SeedAdmin(ctx, userstore.New(db), AdminSeed{Email: "a@example.com", Password: "x"}, zap.NewNop())
	if err == nil {
		t.Error("SeedAdmin() should reject a weak password")
	}
}
