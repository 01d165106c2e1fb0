package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	redis "github.com/redis/go-redis/v9"

	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/domain"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/repository"
)

const treeKeyPrefix = "koala:tree:"

// Store keeps one JSON tree document per project in Redis, keyed by the
// relational project id. Inserts and deletes are atomic per key, which is all
// the cross-request coordination this store is asked for.
type Store struct {
	client *redis.Client
}

// New constructs a Store around an established client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

var _ repository.TreeRepository = (*Store)(nil)

// Ping verifies the document store connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// CreateTree writes the document for a newly created project. SET NX keeps
// the insert atomic; an existing document under the same id means the two
// stores already disagree, so the write is refused rather than clobbered.
func (s *Store) CreateTree(ctx context.Context, tree domain.ProjectTree) error {
	payload, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode tree document: %w", err)
	}
	stored, err := s.client.SetNX(ctx, treeKey(tree.ProjectID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("write tree document: %w", err)
	}
	if !stored {
		return repository.ErrAlreadyExists
	}
	return nil
}

// GetTree returns the stored document verbatim.
func (s *Store) GetTree(ctx context.Context, projectID int64) (json.RawMessage, error) {
	payload, err := s.client.Get(ctx, treeKey(projectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("read tree document: %w", err)
	}
	return json.RawMessage(payload), nil
}

// DeleteTree removes the document and reports how many keys were removed.
func (s *Store) DeleteTree(ctx context.Context, projectID int64) (int64, error) {
	removed, err := s.client.Del(ctx, treeKey(projectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("delete tree document: %w", err)
	}
	return removed, nil
}

func treeKey(projectID int64) string {
	return treeKeyPrefix + strconv.FormatInt(projectID, 10)
}
