package storage

// journal.go: registro append-only de lo que se envió al contrato.
//
// Cada broadcast inserta una fila `pending` y se resuelve una sola vez a
// confirmed/rejected/timeout. Nunca se lee para reconstruir vistas del ledger:
// solo sirve para `history`.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/influstock/internal/domain"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS submissions (
    id          TEXT PRIMARY KEY,
    session_id  TEXT    NOT NULL,
    account     TEXT    NOT NULL,
    kind        TEXT    NOT NULL,
    stock_id    INTEGER NOT NULL DEFAULT 0,
    order_id    INTEGER NOT NULL DEFAULT 0,
    ticker      TEXT    NOT NULL DEFAULT '',
    shares      INTEGER NOT NULL DEFAULT 0,
    price       INTEGER NOT NULL DEFAULT 0,
    slippage    INTEGER NOT NULL DEFAULT 0,
    funds       INTEGER NOT NULL DEFAULT 0,
    status      TEXT    NOT NULL,
    tx_hash     TEXT    NOT NULL DEFAULT '',
    message     TEXT    NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sub_account ON submissions(account, created_at DESC);
`

// retentionSubmissions: el journal es auditoría local, no histórico eterno.
const retentionSubmissions = 90 * 24 * time.Hour

// ErrSubmissionNotFound se devuelve al resolver un id desconocido o ya resuelto.
var ErrSubmissionNotFound = errors.New("submission not found or already resolved")

// SQLiteJournal implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteJournal struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteJournal abre (o crea) el journal en la ruta dada y poda filas viejas.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db, now: time.Now}
	j.pruneOld(context.Background())
	return j, nil
}

// RecordSubmission inserta el intent como pendiente.
func (j *SQLiteJournal) RecordSubmission(ctx context.Context, s domain.Submission) error {
	created := s.CreatedAt
	if created.IsZero() {
		created = j.now()
	}
	status := s.Status
	if status == "" {
		status = domain.SubmissionPending
	}
	in := s.Intent
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO submissions
			(id, session_id, account, kind, stock_id, order_id, ticker, shares,
			 price, slippage, funds, status, tx_hash, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.SessionID, s.Account, string(in.Kind),
		int64(in.StockID), int64(in.OrderID), in.Ticker, int64(in.Shares),
		int64(in.PricePerShare), int64(in.Slippage), int64(in.Funds),
		string(status), s.TxHash, s.Message,
		created.UTC().UnixMilli(), created.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("storage.RecordSubmission %s: %w", s.ID, err)
	}
	return nil
}

// ResolveSubmission cierra una fila pendiente. Una fila ya resuelta no se toca.
func (j *SQLiteJournal) ResolveSubmission(ctx context.Context, id string, status domain.SubmissionStatus, txHash, message string) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE submissions
		SET status = ?, tx_hash = CASE WHEN ? = '' THEN tx_hash ELSE ? END, message = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(status), txHash, txHash, message, j.now().UTC().UnixMilli(),
		id, string(domain.SubmissionPending),
	)
	if err != nil {
		return fmt.Errorf("storage.ResolveSubmission %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.ResolveSubmission %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("storage.ResolveSubmission %s: %w", id, ErrSubmissionNotFound)
	}
	return nil
}

// ListSubmissions devuelve las últimas limit filas del account, más nuevas primero.
func (j *SQLiteJournal) ListSubmissions(ctx context.Context, account string, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, account, kind, stock_id, order_id, ticker, shares,
		       price, slippage, funds, status, tx_hash, message, created_at, updated_at
		FROM submissions
		WHERE account = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListSubmissions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var (
			s                                            domain.Submission
			kind, status                                 string
			stockID, orderID, shares, price, slip, funds int64
			createdMs, updatedMs                         int64
		)
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.Account, &kind, &stockID, &orderID, &s.Intent.Ticker, &shares,
			&price, &slip, &funds, &status, &s.TxHash, &s.Message, &createdMs, &updatedMs,
		); err != nil {
			return nil, fmt.Errorf("storage.ListSubmissions: scan row: %w", err)
		}
		s.Intent.Kind = domain.IntentKind(kind)
		s.Intent.StockID = uint64(stockID)
		s.Intent.OrderID = uint64(orderID)
		s.Intent.Shares = uint64(shares)
		s.Intent.PricePerShare = domain.Micro(price)
		s.Intent.Slippage = uint64(slip)
		s.Intent.Funds = domain.Micro(funds)
		s.Status = domain.SubmissionStatus(status)
		s.CreatedAt = time.UnixMilli(createdMs).UTC()
		s.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// pruneOld elimina filas viejas para mantener la DB ligera.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := j.now().UTC().Add(-retentionSubmissions).UnixMilli()
	j.db.ExecContext(ctx, `DELETE FROM submissions WHERE created_at < ?`, cutoff)
}
