package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fleet-tracker/constants"
)

// Load represents a load for data transfer between layers.
type Load struct {
	ID               uuid.UUID            `json:"id"`
	LoadID           string               `json:"loadId"`
	PickupLocation   string               `json:"pickupLocation"`
	DeliveryLocation string               `json:"deliveryLocation"`
	PickupDate       time.Time            `json:"pickupDate"`
	DeliveryDate     time.Time            `json:"deliveryDate"`
	Rate             float64              `json:"rate"`
	Distance         *float64             `json:"distance,omitempty"`
	Status           constants.LoadStatus `json:"status"`
	InvoiceGenerated bool                 `json:"invoiceGenerated"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// LoadFilter narrows a load listing. Zero values match everything.
type LoadFilter struct {
	Status     constants.LoadStatus
	PickupFrom *time.Time
	PickupTo   *time.Time
	Limit      int
}
