package models

import "time"

// CartSlot stores one serialized cart document under a fixed key.
type CartSlot struct {
	Key       string     `gorm:"column:slot_key;type:text;primaryKey"`
	Payload   []byte     `gorm:"column:payload;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartSlot) TableName() string { return "cart_slots" }
