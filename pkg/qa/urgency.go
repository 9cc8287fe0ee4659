package qa

import (
	"fmt"
	"strings"
)

// =============================================================================
// Urgency
// =============================================================================

// Urgency ranks how serious a rule's findings are.
type Urgency int

// Urgency levels. The ordinals are stable and persisted in run history.
const (
	// UrgencyNone is the state of a rule without findings.
	UrgencyNone Urgency = iota
	// UrgencyWarning flags findings worth reviewing before publishing.
	UrgencyWarning
	// UrgencyError flags findings that must be resolved before publishing.
	UrgencyError
)

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyNone:
		return "none"
	case UrgencyWarning:
		return "warning"
	case UrgencyError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Urgency) UnmarshalText(text []byte) error {
	v, ok := ParseUrgency(string(text))
	if !ok {
		return fmt.Errorf("invalid urgency %q", text)
	}
	*u = v
	return nil
}

// ParseUrgency converts a string to an Urgency value.
// Returns the urgency and true if valid, or UrgencyError and false if invalid.
func ParseUrgency(s string) (Urgency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "0":
		return UrgencyNone, true
	case "warning", "warn", "1":
		return UrgencyWarning, true
	case "error", "2":
		return UrgencyError, true
	default:
		return UrgencyError, false
	}
}
