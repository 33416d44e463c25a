package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signchain/signchain/internal/model"
)

// MemoryAnchorRepository keeps anchors in process memory. It backs the
// service when no database is configured.
type MemoryAnchorRepository struct {
	mu      sync.RWMutex
	anchors []model.Anchor
	now     func() time.Time
}

func NewMemoryAnchorRepository() *MemoryAnchorRepository {
	return &MemoryAnchorRepository{now: time.Now}
}

func (r *MemoryAnchorRepository) CreateAnchor(ctx context.Context, anchor model.Anchor) (*model.Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	anchor.ID = uuid.New()
	anchor.CreatedAt = r.now().UTC()
	r.anchors = append(r.anchors, anchor)
	return &anchor, nil
}

func (r *MemoryAnchorRepository) GetAnchor(ctx context.Context, wallet string, id uuid.UUID) (*model.Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, anchor := range r.anchors {
		if anchor.ID == id && anchor.WalletAddress == wallet {
			found := anchor
			return &found, nil
		}
	}
	return nil, ErrAnchorNotFound
}

func (r *MemoryAnchorRepository) ListAnchors(ctx context.Context, wallet string, limit int) ([]model.Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.Anchor, 0)
	for i := len(r.anchors) - 1; i >= 0; i-- {
		if r.anchors[i].WalletAddress == wallet {
			result = append(result, r.anchors[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
