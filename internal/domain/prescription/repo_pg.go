package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkhaa/smartrx/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by the prescriptions table.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const prescriptionCols = `id, name, date, doctor, status, structured_text, generic_predictions,
	medications, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	var predictions []byte
	err := row.Scan(&p.ID, &p.Name, &p.Date, &p.Doctor, &p.Status, &p.StructuredText,
		&predictions, &p.Medications, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(predictions) > 0 {
		p.GenericPredictions = predictions
	}
	return &p, nil
}

func (r *repoPG) List(ctx context.Context) ([]Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	out := []Prescription{}
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, id string) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *repoPG) insert(ctx context.Context, q db.Querier, p *Prescription) error {
	meds := p.Medications
	if meds == nil {
		meds = []string{}
	}
	var predictions any
	if len(p.GenericPredictions) > 0 {
		predictions = []byte(p.GenericPredictions)
	}
	_, err := q.Exec(ctx, `
		INSERT INTO prescriptions (id, name, date, doctor, status, structured_text,
			generic_predictions, medications, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Date, p.Doctor, p.Status, p.StructuredText, predictions, meds, p.CreatedAt)
	return err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	return r.insert(ctx, r.conn(ctx), p)
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ReplaceAll(ctx context.Context, items []Prescription) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM prescriptions`); err != nil {
			return fmt.Errorf("clear prescriptions: %w", err)
		}
		for i := range items {
			if err := r.insert(ctx, q, &items[i]); err != nil {
				return fmt.Errorf("insert prescription %s: %w", items[i].ID, err)
			}
		}
		return nil
	})
}
