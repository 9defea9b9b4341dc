package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, db interface {
	Create(ctx context.Context, email, passwordHash string) (User, error)
}) User {
	t.Helper()
	user, err := db.Create(context.Background(), "owner@example.com", "hash")
	require.NoError(t, err)
	return user
}

func TestGormSiteStoreCRUD(t *testing.T) {
	db := openTestDB(t)
	users := NewGormUserStore(db)
	sites := NewGormSiteStore(db)
	ctx := context.Background()

	user := seedUser(t, users)

	site := Site{
		Name: "example", URL: "https://example.test", URLList: "https://example.test/list",
		PathLink: "a.post", Status: true, UserID: user.ID,
	}
	require.NoError(t, sites.Create(ctx, &site))
	require.NotZero(t, site.ID)

	enabled, err := sites.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)

	got, ok, err := sites.Get(ctx, user.ID, site.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "example", got.Name)

	require.NoError(t, sites.Update(ctx, user.ID, site.ID, map[string]any{"name": "renamed"}))
	got, _, _ = sites.Get(ctx, user.ID, site.ID)
	require.Equal(t, "renamed", got.Name)

	require.NoError(t, sites.Disable(ctx, site.ID))
	enabled, err = sites.ListEnabled(ctx)
	require.NoError(t, err)
	require.Empty(t, enabled)

	require.NoError(t, sites.Delete(ctx, user.ID, site.ID))
	_, ok, err = sites.Get(ctx, user.ID, site.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGormSiteStoreListScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	users := NewGormUserStore(db)
	sites := NewGormSiteStore(db)
	ctx := context.Background()

	owner, err := users.Create(ctx, "a@example.com", "hash")
	require.NoError(t, err)
	other, err := users.Create(ctx, "b@example.com", "hash")
	require.NoError(t, err)

	require.NoError(t, sites.Create(ctx, &Site{Name: "mine", URL: "https://x.test", URLList: "https://x.test/l", PathLink: "a", UserID: owner.ID}))
	require.NoError(t, sites.Create(ctx, &Site{Name: "theirs", URL: "https://y.test", URLList: "https://y.test/l", PathLink: "a", UserID: other.ID}))

	mine, err := sites.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "mine", mine[0].Name)
}
