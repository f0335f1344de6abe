package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

type memoryApiKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]*models.ApiKey
}

func NewMemoryApiKeyRepository() ApiKeyRepository {
	return &memoryApiKeyRepository{keys: make(map[string]*models.ApiKey)}
}

func (r *memoryApiKeyRepository) GetUserIDByHash(_ context.Context, keyHash string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, k := range r.keys {
		if utils.SafeCompare(k.KeyHash, keyHash) {
			return k.UserID, true, nil
		}
	}
	return "", false, nil
}

func (r *memoryApiKeyRepository) ListByUserID(_ context.Context, userID string) ([]*models.ApiKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.ApiKey
	for _, k := range r.keys {
		if k.UserID == userID {
			c := *k
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryApiKeyRepository) Create(_ context.Context, apiKey *models.ApiKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[apiKey.ID]; ok {
		return fmt.Errorf("api key %s already exists", apiKey.ID)
	}
	for _, k := range r.keys {
		if k.KeyHash == apiKey.KeyHash {
			return fmt.Errorf("api key hash already exists")
		}
	}

	apiKey.CreatedAt = time.Now().UTC()
	c := *apiKey
	r.keys[apiKey.ID] = &c
	return nil
}

func (r *memoryApiKeyRepository) GetByID(_ context.Context, id string) (*models.ApiKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[id]
	if !ok {
		return nil, nil
	}
	c := *k
	return &c, nil
}

func (r *memoryApiKeyRepository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.keys, id)
	return nil
}
