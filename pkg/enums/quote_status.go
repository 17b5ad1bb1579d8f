package enums

import "fmt"

// QuoteStatus tracks a customer quote from draft to invoice.
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusConverted QuoteStatus = "converted"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusSent,
	QuoteStatusConverted,
}

// String implements fmt.Stringer.
func (v QuoteStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known QuoteStatus.
func (v QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}
