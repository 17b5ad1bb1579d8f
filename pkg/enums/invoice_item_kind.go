package enums

import "fmt"

// InvoiceItemKind distinguishes snapshot lines copied from materials and labour.
type InvoiceItemKind string

const (
	InvoiceItemKindMaterial InvoiceItemKind = "material"
	InvoiceItemKindLabour   InvoiceItemKind = "labour"
)

var validInvoiceItemKinds = []InvoiceItemKind{
	InvoiceItemKindMaterial,
	InvoiceItemKindLabour,
}

// String implements fmt.Stringer.
func (v InvoiceItemKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known InvoiceItemKind.
func (v InvoiceItemKind) IsValid() bool {
	for _, candidate := range validInvoiceItemKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseInvoiceItemKind converts raw input into a InvoiceItemKind.
func ParseInvoiceItemKind(value string) (InvoiceItemKind, error) {
	for _, candidate := range validInvoiceItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice item kind %q", value)
}
