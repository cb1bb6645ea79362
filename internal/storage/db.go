package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-cart/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore persists payloads in the cart_slots table.
type DBStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewDBStore(db *gorm.DB, ttl time.Duration) *DBStore {
	return &DBStore{db: db, ttl: ttl, now: time.Now}
}

// Get treats expired rows as missing; they are overwritten on the next Set.
func (s *DBStore) Get(ctx context.Context, key string) ([]byte, error) {
	var slot models.CartSlot
	err := s.db.WithContext(ctx).Where("slot_key = ?", key).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart slot %s: %w", key, err)
	}
	if slot.ExpiresAt != nil && !slot.ExpiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return slot.Payload, nil
}

func (s *DBStore) Set(ctx context.Context, key string, value []byte) error {
	now := s.now().UTC()
	slot := models.CartSlot{
		Key:       key,
		Payload:   value,
		UpdatedAt: now,
	}
	if s.ttl > 0 {
		expires := now.Add(s.ttl)
		slot.ExpiresAt = &expires
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("saving cart slot %s: %w", key, err)
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Where("slot_key = ?", key).Delete(&models.CartSlot{})
	if res.Error != nil {
		return fmt.Errorf("deleting cart slot %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
