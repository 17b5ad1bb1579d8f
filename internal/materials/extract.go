package materials

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

// Requirement is the cable a calculation asks for.
type Requirement struct {
	CableType    string
	CableSize    string
	LengthMetres decimal.Decimal
	Quantity     int
}

// Description is the label used for auto-extracted items.
func (r Requirement) Description() string {
	return r.CableType + " " + r.CableSize + " cable"
}

// Matches reports whether r is keyed on the same cable as the item.
func (r Requirement) Matches(item models.MaterialItem) bool {
	return item.CableType != nil && item.CableSize != nil &&
		*item.CableType == r.CableType && *item.CableSize == r.CableSize
}

// ExtractRequirement reads cableType, cableSize, lengthMetres and an optional
// quantity from inputs, falling back to outputs field by field. Brick
// calculations and documents missing any of the three keys yield nothing.
func ExtractRequirement(calcType string, inputs, outputs []byte) (Requirement, bool) {
	if calcType == models.CalcTypeBrick {
		return Requirement{}, false
	}

	docs := []map[string]any{decodeDocument(inputs), decodeDocument(outputs)}

	cableType, ok := lookupString(docs, "cableType")
	if !ok {
		return Requirement{}, false
	}
	cableSize, ok := lookupString(docs, "cableSize")
	if !ok {
		return Requirement{}, false
	}
	length, ok := lookupDecimal(docs, "lengthMetres")
	if !ok || length.IsNegative() {
		return Requirement{}, false
	}

	quantity := 1
	if qty, ok := lookupDecimal(docs, "quantity"); ok && qty.IsPositive() {
		quantity = int(qty.IntPart())
		if quantity <= 0 {
			quantity = 1
		}
	}

	return Requirement{
		CableType:    cableType,
		CableSize:    cableSize,
		LengthMetres: length,
		Quantity:     quantity,
	}, true
}

func decodeDocument(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	return doc
}

func lookupString(docs []map[string]any, key string) (string, bool) {
	for _, doc := range docs {
		raw, ok := doc[key]
		if !ok || raw == nil {
			continue
		}
		var value string
		switch v := raw.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		default:
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, true
		}
	}
	return "", false
}

func lookupDecimal(docs []map[string]any, key string) (decimal.Decimal, bool) {
	for _, doc := range docs {
		raw, ok := doc[key]
		if !ok || raw == nil {
			continue
		}
		var text string
		switch v := raw.(type) {
		case json.Number:
			text = v.String()
		case string:
			text = strings.TrimSpace(v)
		default:
			continue
		}
		if d, err := decimal.NewFromString(text); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
