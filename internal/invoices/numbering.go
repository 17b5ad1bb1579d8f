package invoices

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

const (
	invoiceNumberConstraint = "ux_invoices_number"
	numberAttempts          = 5
)

// NumberPrefix is the yearly prefix shared by every owner.
func NumberPrefix(year int) string {
	return fmt.Sprintf("INV-%d-", year)
}

// FormatNumber renders INV-{year}-{seq:04d}.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s%04d", NumberPrefix(year), seq)
}

// nextNumber takes the highest number of the year and adds one.
func nextNumber(ctx context.Context, repo Repository, now time.Time) (string, error) {
	year := now.UTC().Year()
	prefix := NumberPrefix(year)

	last, err := repo.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last invoice number")
	}
	if last == "" {
		return FormatNumber(year, 1), nil
	}

	seq, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "malformed invoice number "+last)
	}
	return FormatNumber(year, seq+1), nil
}
