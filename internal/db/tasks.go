package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

// Tasks implements storage.Backend on the tasks table.
// Every query is scoped to an owner; rows of other owners are invisible.
type Tasks struct {
	db *sql.DB
}

const taskColumns = `id, owner_id, title, note, completed, location_type, day, period, position, created_at`

const insertTaskQuery = `
	INSERT INTO tasks (owner_id, title, note, completed, location_type, day, period, position, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (storage.Record, error) {
	var (
		r         storage.Record
		note      sql.NullString
		createdAt string
	)
	err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &note, &r.Completed,
		&r.LocationType, &r.Day, &r.Period, &r.Position, &createdAt)
	if err != nil {
		return storage.Record{}, err
	}
	if note.Valid {
		r.Note = &note.String
	}
	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return storage.Record{}, err
	}
	return r, nil
}

func insertArgs(r storage.Record) []any {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return []any{r.OwnerID, r.Title, r.Note, r.Completed, r.LocationType, r.Day, r.Period, r.Position, formatTime(createdAt)}
}

// List returns the owner's tasks, oldest first.
func (s *Tasks) List(ctx context.Context, ownerID string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return storage.Tasks(records)
}

// Insert stores a task for the owner. The database assigns the id.
func (s *Tasks) Insert(ctx context.Context, ownerID string, t *task.Task) (*task.Task, error) {
	if ownerID == "" {
		return nil, storage.ErrNoOwner
	}
	r := storage.NewRecord(ownerID, t)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, insertTaskQuery, insertArgs(r)...)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	r.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}
	return r.Task()
}

// Update applies a patch to one of the owner's tasks.
func (s *Tasks) Update(ctx context.Context, id int64, ownerID string, p task.Patch) (*task.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`
	r, err := scanRecord(tx.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &task.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}

	t, err := r.Task()
	if err != nil {
		return nil, err
	}
	p.ApplyTo(t)
	r = storage.NewRecord(ownerID, t)

	update := `
		UPDATE tasks
		SET title = ?, note = ?, completed = ?, location_type = ?, day = ?, period = ?, position = ?
		WHERE id = ? AND owner_id = ?
	`
	_, err = tx.ExecContext(ctx, update,
		r.Title, r.Note, r.Completed, r.LocationType, r.Day, r.Period, r.Position, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return t, nil
}

// Delete removes one of the owner's tasks.
func (s *Tasks) Delete(ctx context.Context, id int64, ownerID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &task.NotFoundError{ID: id}
	}
	return nil
}

// BulkInsert stores every record in one transaction: either all rows are
// written or none are. Record ids are ignored and reassigned.
func (s *Tasks) BulkInsert(ctx context.Context, records []storage.Record) ([]*task.Task, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for _, r := range records {
		if r.OwnerID == "" {
			return nil, storage.ErrNoOwner
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertTaskQuery)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	stored := make([]storage.Record, len(records))
	for i, r := range records {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		result, err := stmt.ExecContext(ctx, insertArgs(r)...)
		if err != nil {
			return nil, fmt.Errorf("inserting task %q: %w", r.Title, err)
		}
		r.ID, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting last insert id: %w", err)
		}
		stored[i] = r
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return storage.Tasks(stored)
}

var _ storage.Backend = (*Tasks)(nil)
