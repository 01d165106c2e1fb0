package redisdoc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/domain"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestCreateAndGetTree(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTree(ctx, domain.NewEmptyTree(42)))

	doc, err := store.GetTree(ctx, 42)
	require.NoError(t, err)

	var tree domain.ProjectTree
	require.NoError(t, json.Unmarshal(doc, &tree))
	assert.Equal(t, int64(42), tree.ProjectID)
	assert.Equal(t, "root", tree.Root.Name)
	assert.Empty(t, tree.Root.Children)
}

func TestGetTreeReturnsStoredBytesVerbatim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tree := domain.ProjectTree{
		ProjectID: 7,
		Root: domain.TreeNode{
			Name: "root",
			Children: []domain.TreeNode{
				{Name: "main.tex", Children: []domain.TreeNode{}},
			},
		},
	}
	require.NoError(t, store.CreateTree(ctx, tree))

	want, err := json.Marshal(tree)
	require.NoError(t, err)

	doc, err := store.GetTree(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(doc))
}

func TestCreateTreeRefusesExistingDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTree(ctx, domain.NewEmptyTree(42)))

	err := store.CreateTree(ctx, domain.NewEmptyTree(42))
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestGetTreeMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetTree(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteTreeReportsRemovedCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTree(ctx, domain.NewEmptyTree(42)))

	removed, err := store.DeleteTree(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = store.DeleteTree(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	_, err = store.GetTree(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
