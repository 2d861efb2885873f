package records

import (
	"errors"
	"testing"

	"accounting/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		month, year, sort string
		want              models.RecordFilter
	}{
		{"", "", "", models.RecordFilter{Sort: models.SortDefault}},
		{"all", "all", "default", models.RecordFilter{Sort: models.SortDefault}},
		{"ALL", " all ", "", models.RecordFilter{Sort: models.SortDefault}},
		{"3", "2024", "amount_desc", models.RecordFilter{Month: 3, Year: 2024, Sort: models.SortAmountDesc}},
		{"12", "all", "date_asc", models.RecordFilter{Month: 12, Sort: models.SortDateAsc}},
		{"all", "1999", "amount_asc", models.RecordFilter{Year: 1999, Sort: models.SortAmountAsc}},
		{"1", "", "price", models.RecordFilter{Month: 1, Sort: models.SortDefault}},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.month, tt.year, tt.sort)
		require.NoError(t, err, "month=%q year=%q", tt.month, tt.year)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseFilterRejectsGarbage(t *testing.T) {
	tests := []struct {
		month, year string
		fields      []string
	}{
		{"13", "2024", []string{"month"}},
		{"0", "2024", []string{"month"}},
		{"-1", "2024", []string{"month"}},
		{"march", "2024", []string{"month"}},
		{"3", "0", []string{"year"}},
		{"3", "10000", []string{"year"}},
		{"3", "twenty", []string{"year"}},
		{"x", "y", []string{"month", "year"}},
	}

	for _, tt := range tests {
		f, err := ParseFilter(tt.month, tt.year, "amount_desc")
		require.ErrorIs(t, err, models.ErrValidationFailed, "month=%q year=%q", tt.month, tt.year)
		assert.Equal(t, models.RecordFilter{Sort: models.SortDefault}, f)

		var verr *models.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, tt.fields, sortedKeys(verr.Fields))
	}
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, models.SortDateAsc, ParseSort("date_asc"))
	assert.Equal(t, models.SortAmountDesc, ParseSort(" amount_desc "))
	assert.Equal(t, models.SortAmountAsc, ParseSort("amount_asc"))
	assert.Equal(t, models.SortDefault, ParseSort("default"))
	assert.Equal(t, models.SortDefault, ParseSort(""))
	assert.Equal(t, models.SortDefault, ParseSort("DROP TABLE records"))
}

func TestParsePage(t *testing.T) {
	tests := map[string]int{
		"":    1,
		"1":   1,
		"2":   2,
		" 7 ": 7,
		"0":   1,
		"-3":  1,
		"abc": 1,
		"2.5": 1,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePage(in), "ParsePage(%q)", in)
	}
}
