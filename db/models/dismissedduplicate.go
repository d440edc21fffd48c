package models

import (
	"fmt"
	"time"
)

// DismissedDuplicate records a reviewed duplicate pair so it is never
// reported again. The pair key is order independent and the table is the
// single shared source of truth across processes.
type DismissedDuplicate struct {
	ID        int64     `json:"id" bun:",pk,autoincrement"`
	PairKey   string    `json:"pair_key" bun:",notnull,unique"`
	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}

// PairKey builds the order-independent dismissal key for two transaction ids.
func PairKey(id1, id2 int64) string {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return fmt.Sprintf("%d|%d", id1, id2)
}
