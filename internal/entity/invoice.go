package entity

import (
	"time"

	"github.com/google/uuid"
)

// Invoice records one generated invoice document. Records are never updated;
// a new request for the same load adds another record.
type Invoice struct {
	ID        uuid.UUID `json:"id"`
	LoadRef   uuid.UUID `json:"loadRef"`
	LoadID    string    `json:"loadId"`
	Number    string    `json:"number"`
	FileName  string    `json:"fileName"`
	Location  string    `json:"location"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}
