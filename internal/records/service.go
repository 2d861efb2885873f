// Package records implements adding, deleting and listing a user's
// financial records: input validation, filter parsing and pagination.
package records

import (
	"context"
	"fmt"

	"accounting/internal/models"

	"github.com/shopspring/decimal"
)

// PerPage is the fixed page size of record listings.
const PerPage = 20

// Store is the record persistence used by Service. Every method is scoped
// to an owner.
type Store interface {
	InsertRecord(ctx context.Context, r models.Record) (*models.Record, error)
	DeleteRecord(ctx context.Context, id, requesterID int64) error
	QueryRecords(ctx context.Context, ownerID int64, f models.RecordFilter, limit, offset int) ([]models.Record, error)
	CountRecords(ctx context.Context, ownerID int64, f models.RecordFilter) (int, error)
}

// Service runs the record operations on behalf of a session owner.
type Service struct {
	store Store
}

// NewService creates a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Add validates in and stores it as a record owned by ownerID.
func (s *Service) Add(ctx context.Context, ownerID int64, in RecordInput) (*models.Record, error) {
	rec, err := ValidateRecord(ownerID, in)
	if err != nil {
		return nil, err
	}
	return s.store.InsertRecord(ctx, rec)
}

// Delete removes recordID if requesterID owns it. See storage semantics:
// models.ErrNotFound or models.ErrNotAuthorized otherwise.
func (s *Service) Delete(ctx context.Context, recordID, requesterID int64) error {
	return s.store.DeleteRecord(ctx, recordID, requesterID)
}

// List returns page number page of ownerID's records matching f.
// Pages past the end come back empty.
func (s *Service) List(ctx context.Context, ownerID int64, f models.RecordFilter, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.store.CountRecords(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	p := &Page{Records: []models.Record{}, Number: page, PerPage: PerPage, Total: total, Filter: f}
	if page > p.Pages() {
		return p, nil
	}

	recs, err := s.store.QueryRecords(ctx, ownerID, f, PerPage, (page-1)*PerPage)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	p.Records = recs
	return p, nil
}

// Page is one slice of an ordered, filtered record listing.
type Page struct {
	Records []models.Record
	Number  int
	PerPage int
	Total   int
	Filter  models.RecordFilter
}

// Pages returns the number of non-empty pages.
func (p *Page) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p *Page) HasPrev() bool { return p.Number > 1 && p.Pages() > 0 }
func (p *Page) HasNext() bool { return p.Number < p.Pages() }
func (p *Page) NextNum() int  { return p.Number + 1 }

// PrevNum points back into range when the page is past the last one.
func (p *Page) PrevNum() int {
	if last := p.Pages(); p.Number > last {
		return last
	}
	return p.Number - 1
}

// Sum adds up the amounts on this page.
func (p *Page) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range p.Records {
		sum = sum.Add(r.Amount)
	}
	return sum
}
