package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkhaa/smartrx/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by the reminders table.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const reminderCols = `id, medication, title, kind, description, date, time, recurring, priority,
	completed, taken_history, auto_generated`

func scanReminder(row pgx.Row) (*Reminder, error) {
	var rem Reminder
	err := row.Scan(&rem.ID, &rem.Medication, &rem.Title, &rem.Kind, &rem.Description,
		&rem.Date, &rem.Time, &rem.Recurring, &rem.Priority,
		&rem.Completed, &rem.TakenHistory, &rem.AutoGenerated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rem, err
}

func (r *repoPG) List(ctx context.Context) ([]Reminder, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reminderCols+` FROM reminders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	out := []Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rem)
	}
	return out, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, id string) (*Reminder, error) {
	return scanReminder(r.conn(ctx).QueryRow(ctx, `SELECT `+reminderCols+` FROM reminders WHERE id = $1`, id))
}

func (r *repoPG) insert(ctx context.Context, q db.Querier, rem *Reminder) error {
	_, err := q.Exec(ctx, `
		INSERT INTO reminders (id, medication, title, kind, description, date, time, recurring, priority,
			completed, taken_history, auto_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rem.ID, rem.Medication, rem.Title, rem.Kind, rem.Description, rem.Date, rem.Time,
		rem.Recurring, rem.Priority, rem.Completed, takenHistory(rem), rem.AutoGenerated)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// takenHistory keeps the NOT NULL array column satisfied.
func takenHistory(rem *Reminder) []time.Time {
	if rem.TakenHistory == nil {
		return []time.Time{}
	}
	return rem.TakenHistory
}

func (r *repoPG) Create(ctx context.Context, rem *Reminder) error {
	return r.insert(ctx, r.conn(ctx), rem)
}

func (r *repoPG) Update(ctx context.Context, rem *Reminder) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE reminders SET medication=$2, title=$3, kind=$4, description=$5, date=$6, time=$7,
			recurring=$8, priority=$9, completed=$10, taken_history=$11, auto_generated=$12
		WHERE id = $1`,
		rem.ID, rem.Medication, rem.Title, rem.Kind, rem.Description, rem.Date, rem.Time,
		rem.Recurring, rem.Priority, rem.Completed, takenHistory(rem), rem.AutoGenerated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ReplaceAll(ctx context.Context, reminders []Reminder) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM reminders`); err != nil {
			return fmt.Errorf("clear reminders: %w", err)
		}
		for i := range reminders {
			if err := r.insert(ctx, q, &reminders[i]); err != nil {
				return fmt.Errorf("insert reminder %s: %w", reminders[i].ID, err)
			}
		}
		return nil
	})
}
