package taxonomy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/annotator/internal/db"
	"github.com/kailas-cloud/annotator/internal/domain"
	domtax "github.com/kailas-cloud/annotator/internal/domain/taxonomy"
)

// querier is the subset of *sql.DB the SQL repository uses.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

const bumpVersionSQL = `INSERT INTO taxonomy_meta (key, value) VALUES ('version', 1)
	ON CONFLICT(key) DO UPDATE SET value = value + 1`

// SQLRepo implements usecase/taxonomy.Repository on SQLite.
type SQLRepo struct {
	db    querier
	newID func() string
}

// NewSQL creates a SQL-backed taxonomy repository. The schema must exist.
func NewSQL(q querier) *SQLRepo {
	return &SQLRepo{db: q, newID: uuid.NewString}
}

// ListLabels returns every label in creation order.
func (r *SQLRepo) ListLabels(ctx context.Context) ([]domtax.Label, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM labels ORDER BY created_at, rowid`)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var labels []domtax.Label
	for rows.Next() {
		var l domtax.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return labels, nil
}

// ListColors returns every color in creation order.
func (r *SQLRepo) ListColors(ctx context.Context) ([]domtax.Color, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color_value FROM colors ORDER BY created_at, rowid`)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var colors []domtax.Color
	for rows.Next() {
		var c domtax.Color
		if err := rows.Scan(&c.ID, &c.Name, &c.Value); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		colors = append(colors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return colors, nil
}

// CreateLabel stores a label and returns its id.
func (r *SQLRepo) CreateLabel(ctx context.Context, name string) (string, error) {
	l, err := domtax.NewLabel(r.newID(), name)
	if err != nil {
		return "", err
	}
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO labels (id, name) VALUES (?, ?)`, l.ID, l.Name)
		return err
	})
	if err != nil {
		return "", err
	}
	return l.ID, nil
}

// CreateColor stores a color and returns its id.
func (r *SQLRepo) CreateColor(ctx context.Context, name, value string) (string, error) {
	c, err := domtax.NewColor(r.newID(), name, value)
	if err != nil {
		return "", err
	}
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO colors (id, name, color_value) VALUES (?, ?, ?)`, c.ID, c.Name, c.Value)
		return err
	})
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// DeleteLabel removes a label.
func (r *SQLRepo) DeleteLabel(ctx context.Context, id string) error {
	return r.delete(ctx, `DELETE FROM labels WHERE id = ?`, id)
}

// DeleteColor removes a color.
func (r *SQLRepo) DeleteColor(ctx context.Context, id string) error {
	return r.delete(ctx, `DELETE FROM colors WHERE id = ?`, id)
}

// Seed writes the given entries in one transaction.
func (r *SQLRepo) Seed(ctx context.Context, labels []domtax.Label, colors []domtax.Color) error {
	if len(labels)+len(colors) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, l := range labels {
			if _, err := tx.ExecContext(ctx, `INSERT INTO labels (id, name) VALUES (?, ?)`, r.newID(), l.Name); err != nil {
				return err
			}
		}
		for _, c := range colors {
			if _, err := tx.ExecContext(ctx, `INSERT INTO colors (id, name, color_value) VALUES (?, ?, ?)`, r.newID(), c.Name, c.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Version returns a counter that changes on every catalog mutation.
func (r *SQLRepo) Version(ctx context.Context) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT value FROM taxonomy_meta WHERE key = 'version'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, &db.Error{Op: db.OpQuery, Err: err}
	}
	return v, nil
}

func (r *SQLRepo) delete(ctx context.Context, query, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// inTx runs fn and bumps the catalog version in the same transaction.
func (r *SQLRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("taxonomy write: %w", err)}
	}
	if _, err := tx.ExecContext(ctx, bumpVersionSQL); err != nil {
		_ = tx.Rollback()
		return &db.Error{Op: db.OpExec, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	return nil
}
