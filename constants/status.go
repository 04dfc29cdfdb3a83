package constants

// LoadStatus is the canonical status for rows in loads.
type LoadStatus string

// Stable values (store these exact strings in DB).
const (
	LoadStatusPending   LoadStatus = "pending"    // created, no driver yet
	LoadStatusAssigned  LoadStatus = "assigned"   // driver and truck set
	LoadStatusInTransit LoadStatus = "in-transit" // picked up
	LoadStatusDelivered LoadStatus = "delivered"  // terminal
)

var allLoadStatuses = []LoadStatus{
	LoadStatusPending,
	LoadStatusAssigned,
	LoadStatusInTransit,
	LoadStatusDelivered,
}

// ParseLoadStatus returns the status matching s, or false if s is not a known status.
func ParseLoadStatus(s string) (LoadStatus, bool) {
	for _, st := range allLoadStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}
