package records

import (
	"strconv"
	"strings"

	"accounting/internal/models"
)

// AllValue is the form value that disables a month or year predicate.
const AllValue = "all"

const (
	MinYear = 1
	MaxYear = 9999
)

// ParseFilter turns raw month, year and sort values into a filter.
// Empty or "all" month/year apply no predicate; anything else must be a
// number in range. Unknown sort values fall back to the default order.
func ParseFilter(month, year, sort string) (models.RecordFilter, error) {
	verr := models.NewValidationError()
	f := models.RecordFilter{Sort: ParseSort(sort)}

	if m, ok := parseOptionalInt(month); !ok {
		verr.Add("month", "must be 'all' or a number between 1 and 12")
	} else if m != 0 && (m < 1 || m > 12) {
		verr.Add("month", "must be 'all' or a number between 1 and 12")
	} else {
		f.Month = m
	}

	if y, ok := parseOptionalInt(year); !ok {
		verr.Add("year", "must be 'all' or a year")
	} else if y != 0 && (y < MinYear || y > MaxYear) {
		verr.Add("year", "must be 'all' or a year")
	} else {
		f.Year = y
	}

	if err := verr.OrNil(); err != nil {
		return models.RecordFilter{Sort: models.SortDefault}, err
	}
	return f, nil
}

// ParseSort maps a form value to a sort order, defaulting to date descending.
func ParseSort(s string) models.SortOrder {
	switch so := models.SortOrder(strings.TrimSpace(s)); so {
	case models.SortDateAsc, models.SortAmountDesc, models.SortAmountAsc:
		return so
	default:
		return models.SortDefault
	}
}

// ParsePage returns the requested page number, or 1 for missing, malformed
// or non-positive input.
func ParsePage(s string) int {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// parseOptionalInt returns 0, true for "" and "all".
func parseOptionalInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllValue) {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if n == 0 {
		// 0 is not a month or year; keep it distinct from "all".
		return -1, true
	}
	return n, true
}
