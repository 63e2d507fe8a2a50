package types

// Horizon selects which read horizon of the view a query observes.
type Horizon uint8

const (
	// HorizonTip includes locally-pending, not-yet-decided writes.
	// Fresh, but not yet agreed across replicas.
	HorizonTip Horizon = 1
	// HorizonConfirmed includes only majority-decided entries.
	// Safe for cross-node agreement.
	HorizonConfirmed Horizon = 2
)

func (h Horizon) String() string {
	switch h {
	case HorizonTip:
		return "tip"
	case HorizonConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}
