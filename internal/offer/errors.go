package offer

import "fmt"

// FormatError reports a duration string outside the supported subset.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid ISO 8601 duration format: %s. Expected format: PT[hours]H[minutes]M[seconds]S", e.Input)
}

// MappingError reports a raw offer that could not be normalized.
// OfferID is empty when the payload was unreadable before the id.
type MappingError struct {
	OfferID string
	Field   string
	Err     error
}

func (e *MappingError) Error() string {
	id := e.OfferID
	if id == "" {
		id = "?"
	}
	if e.Field == "" {
		return fmt.Sprintf("map offer %s: %v", id, e.Err)
	}
	return fmt.Sprintf("map offer %s: %s: %v", id, e.Field, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }
