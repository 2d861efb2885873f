package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"accounting/internal/models"

	"github.com/shopspring/decimal"
)

// InsertRecord stores a new record and returns it with its generated ID.
func (db *DB) InsertRecord(ctx context.Context, r models.Record) (*models.Record, error) {
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO records (user_id, date, item, amount_cents) VALUES (?, ?, ?, ?)",
		r.UserID, r.Date.Format(models.DateLayout), r.Item, toCents(r.Amount),
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	r.ID = id
	r.Amount = fromCents(toCents(r.Amount))
	return &r, nil
}

// GetRecord retrieves a record by ID if it belongs to ownerID.
func (db *DB) GetRecord(ctx context.Context, id, ownerID int64) (*models.Record, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, user_id, date, item, amount_cents FROM records WHERE user_id = ? AND id = ?",
		ownerID, id,
	)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return r, err
}

// DeleteRecord removes a record owned by requesterID. It returns
// models.ErrNotFound when the record does not exist and
// models.ErrNotAuthorized when another user owns it.
func (db *DB) DeleteRecord(ctx context.Context, id, requesterID int64) error {
	return db.withTx(ctx, func(ctx context.Context, tx DBTX) error {
		var ownerID int64
		err := tx.QueryRowContext(ctx, "SELECT user_id FROM records WHERE id = ?", id).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("lookup record: %w", err)
		}
		if ownerID != requesterID {
			return models.ErrNotAuthorized
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = ? AND user_id = ?", id, requesterID); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
		return nil
	})
}

// QueryRecords lists ownerID's records matching f, ordered per f.Sort with
// id ascending as tiebreak.
func (db *DB) QueryRecords(ctx context.Context, ownerID int64, f models.RecordFilter, limit, offset int) ([]models.Record, error) {
	where, args := recordPredicate(ownerID, f)
	query := "SELECT id, user_id, date, item, amount_cents FROM records WHERE " + where +
		" ORDER BY " + recordOrder(f.Sort) + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0, limit)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}

	return records, rows.Err()
}

// CountRecords returns how many of ownerID's records match f.
func (db *DB) CountRecords(ctx context.Context, ownerID int64, f models.RecordFilter) (int, error) {
	where, args := recordPredicate(ownerID, f)

	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// recordPredicate builds the WHERE clause. The owner clause always comes
// first and is never omitted.
func recordPredicate(ownerID int64, f models.RecordFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{ownerID}

	if f.Month != 0 {
		clauses = append(clauses, "CAST(strftime('%m', date) AS INTEGER) = ?")
		args = append(args, f.Month)
	}
	if f.Year != 0 {
		clauses = append(clauses, "CAST(strftime('%Y', date) AS INTEGER) = ?")
		args = append(args, f.Year)
	}

	return strings.Join(clauses, " AND "), args
}

func recordOrder(s models.SortOrder) string {
	switch s {
	case models.SortDateAsc:
		return "date ASC, id ASC"
	case models.SortAmountDesc:
		return "amount_cents DESC, id ASC"
	case models.SortAmountAsc:
		return "amount_cents ASC, id ASC"
	default:
		return "date DESC, id ASC"
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.Record, error) {
	var (
		r       models.Record
		dateStr string
		cents   int64
	)
	if err := s.Scan(&r.ID, &r.UserID, &dateStr, &r.Item, &cents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}

	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse record %d date %q: %w", r.ID, dateStr, err)
	}
	r.Date = date
	r.Amount = fromCents(cents)
	return &r, nil
}

// Amounts are stored as integer hundredths so ordering and sums stay exact.
func toCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
