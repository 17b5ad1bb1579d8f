package quotes

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

// quoteNumberConstraint guards (owner_id, quote_number).
const quoteNumberConstraint = "ux_customer_quotes_owner_number"

const numberAttempts = 5

// FormatNumber renders {prefix}-{year}-{seq:04d}.
func FormatNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// nextNumber counts the owner's quotes created this UTC year and steps past
// any number already taken.
func nextNumber(ctx context.Context, repo Repository, prefix, ownerID string, now time.Time) (string, error) {
	now = now.UTC()
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	count, err := repo.CountForOwnerBetween(ctx, ownerID, from, to)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quotes")
	}

	seq := int(count) + 1
	for {
		candidate := FormatNumber(prefix, now.Year(), seq)
		taken, err := repo.NumberExists(ctx, ownerID, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check quote number")
		}
		if !taken {
			return candidate, nil
		}
		seq++
	}
}
