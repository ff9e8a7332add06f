package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
)

// DonationRepo is the durable, append-only donation ledger. It implements
// domain.DonationLedger.
type DonationRepo struct {
	db *sql.DB
}

func NewDonationRepo(db *sql.DB) *DonationRepo {
	return &DonationRepo{db: db}
}

// Record persists a donation record at most once per transaction id. When a
// record for the transaction already exists (duplicate webhook, client
// replay, or a concurrent submission that lost the race) the existing record
// is returned unchanged and the new receipt number is discarded.
func (r *DonationRepo) Record(ctx context.Context, rec *domain.DonationRecord) (*domain.DonationRecord, error) {
	// The conflict target is transaction_id only: a receipt-number collision
	// between two different transactions must insert both rows, not swallow
	// one of them.
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO donations
		(receipt_number, transaction_id, amount, currency, donor_name,
		 donor_email, donor_phone, recurring, frequency, payment_method, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(transaction_id) DO NOTHING`,
		rec.ReceiptNumber, rec.TransactionID, rec.Amount, rec.Currency,
		rec.DonorName, rec.DonorEmail, nullableString(rec.DonorPhone),
		boolToInt(rec.Recurring), nullableString(string(rec.Frequency)),
		string(rec.PaymentMethod), rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	if inserted > 0 {
		return rec, nil
	}

	// Lost the race or replayed: return the first writer's record.
	existing, err := r.GetByTransactionID(ctx, rec.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate insert but lookup failed: %v", domain.ErrPersistenceFailed, err)
	}
	return existing, nil
}

// GetByTransactionID looks up the ledger entry for a provider transaction.
func (r *DonationRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.DonationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		selectColumns+" FROM donations WHERE transaction_id = ?", transactionID)
	return scanDonation(row)
}

// GetByReceiptNumber looks up the ledger entry for a receipt number.
func (r *DonationRepo) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*domain.DonationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		selectColumns+" FROM donations WHERE receipt_number = ?", receiptNumber)
	return scanDonation(row)
}

// DonationFilter narrows List results.
type DonationFilter struct {
	Method    string
	Currency  string
	Recurring *bool
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

// List returns donations matching the filter, newest first, plus the total
// match count for pagination.
func (r *DonationRepo) List(ctx context.Context, f DonationFilter) ([]domain.DonationRecord, int, error) {
	where, args := buildDonationWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM donations"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	query := selectColumns + " FROM donations" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var records []domain.DonationRecord
	for rows.Next() {
		rec, err := scanDonationRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		records = append(records, *rec)
	}
	return records, total, rows.Err()
}

// Stats holds aggregate donation statistics for the reporting dashboard.
type Stats struct {
	Total          int                `json:"total"`
	Recurring      int                `json:"recurring"`
	TotalByMethod  map[string]float64 `json:"total_by_method"`
	AmountByCurrency map[string]float64 `json:"amount_by_currency"`
}

func (r *DonationRepo) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{
		TotalByMethod:    map[string]float64{},
		AmountByCurrency: map[string]float64{},
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN recurring=1 THEN 1 ELSE 0 END), 0)
		FROM donations
	`).Scan(&s.Total, &s.Recurring)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT payment_method, COALESCE(SUM(amount), 0) FROM donations GROUP BY payment_method
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var method string
		var amount float64
		if err := rows.Scan(&method, &amount); err != nil {
			return nil, err
		}
		s.TotalByMethod[method] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	curRows, err := r.db.QueryContext(ctx, `
		SELECT currency, COALESCE(SUM(amount), 0) FROM donations GROUP BY currency
	`)
	if err != nil {
		return nil, err
	}
	defer curRows.Close()
	for curRows.Next() {
		var cur string
		var amount float64
		if err := curRows.Scan(&cur, &amount); err != nil {
			return nil, err
		}
		s.AmountByCurrency[cur] = amount
	}
	return s, curRows.Err()
}

func (r *DonationRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM donations").Scan(&count)
	return count, err
}

// --- helpers ---

const selectColumns = `SELECT receipt_number, transaction_id, amount, currency,
	donor_name, donor_email, donor_phone, recurring, frequency,
	payment_method, created_at`

func buildDonationWhere(f DonationFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Method != "" {
		clauses = append(clauses, "payment_method = ?")
		args = append(args, f.Method)
	}
	if f.Currency != "" {
		clauses = append(clauses, "currency = ?")
		args = append(args, f.Currency)
	}
	if f.Recurring != nil {
		clauses = append(clauses, "recurring = ?")
		args = append(args, boolToInt(*f.Recurring))
	}
	if f.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*domain.DonationRecord, error) {
	var rec domain.DonationRecord
	var phone, freq sql.NullString
	var recurring int
	var method, createdAt string

	err := row.Scan(
		&rec.ReceiptNumber, &rec.TransactionID, &rec.Amount, &rec.Currency,
		&rec.DonorName, &rec.DonorEmail, &phone, &recurring, &freq,
		&method, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	rec.DonorPhone = phone.String
	rec.Recurring = recurring != 0
	rec.Frequency = domain.Frequency(freq.String)
	rec.PaymentMethod = domain.PaymentMethod(method)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

func scanDonation(row *sql.Row) (*domain.DonationRecord, error) {
	return scanRecord(row)
}

func scanDonationRows(rows *sql.Rows) (*domain.DonationRecord, error) {
	return scanRecord(rows)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
