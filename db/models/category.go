package models

import "time"

// Category : Category Model
type Category struct {
	ID        int64     `json:"id" bun:",pk,autoincrement"`
	Name      string    `json:"name" bun:",notnull,unique" validate:"required"`
	Type      string    `json:"type,omitempty" bun:",nullzero"`
	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
