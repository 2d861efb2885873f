package models

// SortOrder selects how a record listing is ordered.
type SortOrder string

const (
	SortDefault    SortOrder = "default"
	SortDateAsc    SortOrder = "date_asc"
	SortAmountDesc SortOrder = "amount_desc"
	SortAmountAsc  SortOrder = "amount_asc"
)

// SortOrders lists the orders offered to users, in display order.
var SortOrders = []SortOrder{SortDefault, SortDateAsc, SortAmountDesc, SortAmountAsc}

// Label returns a human readable name for the order.
func (s SortOrder) Label() string {
	switch s {
	case SortDateAsc:
		return "Date Ascending"
	case SortAmountDesc:
		return "Amount Descending"
	case SortAmountAsc:
		return "Amount Ascending"
	default:
		return "Default"
	}
}

// RecordFilter narrows a listing of one owner's records.
// A zero Month or Year means "all".
type RecordFilter struct {
	Month int
	Year  int
	Sort  SortOrder
}

// IsZero reports whether the filter applies no predicate and the default order.
func (f RecordFilter) IsZero() bool {
	return f.Month == 0 && f.Year == 0 && (f.Sort == "" || f.Sort == SortDefault)
}
