package medication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkhaa/smartrx/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by the medications table.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const medCols = `id, name, dosage, frequency, description, cautions, side_effects, interactions, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var interactions []byte
	err := row.Scan(&rec.ID, &rec.Name, &rec.Dosage, &rec.Frequency, &rec.Description,
		&rec.Cautions, &rec.SideEffects, &interactions, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(interactions) > 0 {
		if err := json.Unmarshal(interactions, &rec.Interactions); err != nil {
			return nil, fmt.Errorf("decode interactions: %w", err)
		}
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) List(ctx context.Context) ([]Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+medCols+` FROM medications ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medications WHERE id = $1`, id))
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medications WHERE name = $1`, name))
}

func (r *repoPG) insert(ctx context.Context, q db.Querier, rec *Record) error {
	interactions, err := json.Marshal(nonNilInteractions(rec.Interactions))
	if err != nil {
		return fmt.Errorf("encode interactions: %w", err)
	}
	err = q.QueryRow(ctx, `
		INSERT INTO medications (id, name, dosage, frequency, description, cautions, side_effects, interactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rec.ID, rec.Name, rec.Dosage, rec.Frequency, rec.Description,
		nonNilStrings(rec.Cautions), nonNilStrings(rec.SideEffects), interactions,
	).Scan(&rec.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.NewString()
	return r.insert(ctx, r.conn(ctx), rec)
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	interactions, err := json.Marshal(nonNilInteractions(rec.Interactions))
	if err != nil {
		return fmt.Errorf("encode interactions: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medications SET name=$2, dosage=$3, frequency=$4, description=$5,
			cautions=$6, side_effects=$7, interactions=$8
		WHERE id = $1`,
		rec.ID, rec.Name, rec.Dosage, rec.Frequency, rec.Description,
		nonNilStrings(rec.Cautions), nonNilStrings(rec.SideEffects), interactions)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ReplaceAll(ctx context.Context, records []Record) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM medications`); err != nil {
			return fmt.Errorf("clear medications: %w", err)
		}
		for i := range records {
			if records[i].ID == "" {
				records[i].ID = uuid.NewString()
			}
			if err := r.insert(ctx, q, &records[i]); err != nil {
				return fmt.Errorf("insert %s: %w", records[i].Name, err)
			}
		}
		return nil
	})
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInteractions(s []Interaction) []Interaction {
	if s == nil {
		return []Interaction{}
	}
	return s
}
