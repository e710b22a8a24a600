package billing

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentKind tags a reference number with the type of document
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "INV"
	DocumentKindQuote   DocumentKind = "QUO"
)

// FormatReference builds a human-readable reference number:
// <TAG>-<org6>-<YYYYMM>-<NNN>, e.g. INV-3F9A2B-202608-042.
// The suffix keeps three digits; callers pass a value in [0,1000).
func FormatReference(kind DocumentKind, organizationID uuid.UUID, at time.Time, suffix int) string {
	org := strings.ToUpper(strings.ReplaceAll(organizationID.String(), "-", ""))
	if len(org) > 6 {
		org = org[:6]
	}
	return fmt.Sprintf("%s-%s-%d%02d-%03d", kind, org, at.Year(), int(at.Month()), suffix%1000)
}

// RandomReference builds a reference with a random 3-digit suffix. The
// suffix alone does not guarantee uniqueness; repositories verify the
// generated reference and retry on collision.
func RandomReference(kind DocumentKind, organizationID uuid.UUID, at time.Time) string {
	return FormatReference(kind, organizationID, at, rand.IntN(1000))
}
