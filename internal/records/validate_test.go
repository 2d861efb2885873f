package records

import (
	"errors"
	"strings"
	"testing"

	"accounting/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRecord(t *testing.T) {
	rec, err := ValidateRecord(5, RecordInput{Date: "2024-03-01", Item: "  Coffee ", Amount: "-4.5"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.UserID)
	assert.Equal(t, "2024-03-01", rec.FormattedDate())
	assert.Equal(t, "Coffee", rec.Item)
	assert.Equal(t, "-4.50", rec.Amount.StringFixed(2))
	assert.False(t, rec.IsIncome())
}

func TestValidateRecordRoundsAmount(t *testing.T) {
	rec, err := ValidateRecord(1, RecordInput{Date: "2024-03-01", Item: "x", Amount: "10.005"})
	require.NoError(t, err)
	assert.Equal(t, "10.01", rec.Amount.StringFixed(2))
}

func TestValidateRecordBounds(t *testing.T) {
	_, err := ValidateRecord(1, RecordInput{Date: "2024-03-01", Item: "x", Amount: "9999999999"})
	assert.NoError(t, err)
	_, err = ValidateRecord(1, RecordInput{Date: "2024-03-01", Item: "x", Amount: "-9999999999"})
	assert.NoError(t, err)
	_, err = ValidateRecord(1, RecordInput{Date: "2024-03-01", Item: strings.Repeat("é", MaxItemLen), Amount: "1"})
	assert.NoError(t, err, "item length counts characters, not bytes")
}

func TestValidateRecordErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    RecordInput
		field string
	}{
		{"missing date", RecordInput{Item: "x", Amount: "1"}, "date"},
		{"bad date", RecordInput{Date: "03/01/2024", Item: "x", Amount: "1"}, "date"},
		{"impossible date", RecordInput{Date: "2024-02-30", Item: "x", Amount: "1"}, "date"},
		{"missing item", RecordInput{Date: "2024-03-01", Item: "   ", Amount: "1"}, "item"},
		{"long item", RecordInput{Date: "2024-03-01", Item: strings.Repeat("a", MaxItemLen+1), Amount: "1"}, "item"},
		{"missing amount", RecordInput{Date: "2024-03-01", Item: "x"}, "amount"},
		{"non numeric amount", RecordInput{Date: "2024-03-01", Item: "x", Amount: "12abc"}, "amount"},
		{"amount too large", RecordInput{Date: "2024-03-01", Item: "x", Amount: "10000000000"}, "amount"},
		{"amount too small", RecordInput{Date: "2024-03-01", Item: "x", Amount: "-10000000000"}, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRecord(1, tt.in)
			require.ErrorIs(t, err, models.ErrValidationFailed)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, 1)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidateRecordReportsEveryField(t *testing.T) {
	_, err := ValidateRecord(1, RecordInput{})

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"amount", "date", "item"}, sortedKeys(verr.Fields))
}

func sortedKeys(m map[string]string) []string {
	var keys []string
	for _, k := range []string{"amount", "date", "item", "month", "year"} {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}
