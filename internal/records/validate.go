package records

import (
	"strings"
	"time"
	"unicode/utf8"

	"accounting/internal/models"

	"github.com/shopspring/decimal"
)

// MaxItemLen is the longest item label accepted, in characters.
const MaxItemLen = 100

var (
	// MaxAmount and MinAmount bound a record's amount.
	MaxAmount = decimal.NewFromInt(9999999999)
	MinAmount = MaxAmount.Neg()
)

// RecordInput is the raw form data for a new record.
type RecordInput struct {
	Date   string
	Item   string
	Amount string
}

// ValidateRecord parses in into a record for ownerID. Every failing field is
// reported in the returned *models.ValidationError.
func ValidateRecord(ownerID int64, in RecordInput) (models.Record, error) {
	verr := models.NewValidationError()
	rec := models.Record{UserID: ownerID}

	if ds := strings.TrimSpace(in.Date); ds == "" {
		verr.Add("date", "is required")
	} else if d, err := time.Parse(models.DateLayout, ds); err != nil {
		verr.Add("date", "must be a date in YYYY-MM-DD format")
	} else {
		rec.Date = d
	}

	item := strings.TrimSpace(in.Item)
	switch {
	case item == "":
		verr.Add("item", "is required")
	case utf8.RuneCountInString(item) > MaxItemLen:
		verr.Add("item", "must be at most 100 characters")
	default:
		rec.Item = item
	}

	if as := strings.TrimSpace(in.Amount); as == "" {
		verr.Add("amount", "is required")
	} else if amount, err := decimal.NewFromString(as); err != nil {
		verr.Add("amount", "must be a number")
	} else if amount = amount.Round(2); amount.GreaterThan(MaxAmount) || amount.LessThan(MinAmount) {
		verr.Add("amount", "must be between -9999999999 and 9999999999")
	} else {
		rec.Amount = amount
	}

	if err := verr.OrNil(); err != nil {
		return models.Record{}, err
	}
	return rec, nil
}
