package enums

import "fmt"

// WholesalerQuoteStatus is the stored state of a wholesaler pricing request. Expiry is derived, never stored.
type WholesalerQuoteStatus string

const (
	WholesalerQuoteStatusSent   WholesalerQuoteStatus = "sent"
	WholesalerQuoteStatusPriced WholesalerQuoteStatus = "priced"
)

var validWholesalerQuoteStatuses = []WholesalerQuoteStatus{
	WholesalerQuoteStatusSent,
	WholesalerQuoteStatusPriced,
}

// String implements fmt.Stringer.
func (v WholesalerQuoteStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WholesalerQuoteStatus.
func (v WholesalerQuoteStatus) IsValid() bool {
	for _, candidate := range validWholesalerQuoteStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWholesalerQuoteStatus converts raw input into a WholesalerQuoteStatus.
func ParseWholesalerQuoteStatus(value string) (WholesalerQuoteStatus, error) {
	for _, candidate := range validWholesalerQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wholesaler quote status %q", value)
}
