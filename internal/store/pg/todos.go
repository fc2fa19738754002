package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tasknest.dev/internal/todo"
)

var _ todo.Store = (*TodoStore)(nil)

// TodoStore implements todo.Store over PostgreSQL.
type TodoStore struct {
	db *sql.DB
}

func (s *TodoStore) Create(ctx context.Context, t *todo.Todo) error {
	row := s.db.QueryRowContext(ctx, `
		insert into todos (id, organization_id, title, description, done, created_by)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, t.ID, t.OrganizationID, t.Title, t.Description, t.Done, t.CreatedBy)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: unknown organization or user", todo.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (s *TodoStore) Find(ctx context.Context, orgID, id string) (*todo.Todo, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, organization_id, title, description, done, created_by, created_at, updated_at
		from todos where organization_id=$1 and id=$2
	`, orgID, id)
	return scanTodo(row)
}

func (s *TodoStore) ListByOrg(ctx context.Context, orgID string) ([]*todo.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, organization_id, title, description, done, created_by, created_at, updated_at
		from todos where organization_id=$1 order by created_at asc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*todo.Todo
	for rows.Next() {
		var t todo.Todo
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Title, &t.Description, &t.Done, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *TodoStore) Update(ctx context.Context, orgID, id string, upd todo.Update) (*todo.Todo, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if upd.Title != nil {
		args = append(args, *upd.Title)
		sets = append(sets, fmt.Sprintf("title=$%d", len(args)))
	}
	if upd.Description != nil {
		args = append(args, *upd.Description)
		sets = append(sets, fmt.Sprintf("description=$%d", len(args)))
	}
	if upd.Done != nil {
		args = append(args, *upd.Done)
		sets = append(sets, fmt.Sprintf("done=$%d", len(args)))
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", todo.ErrInvalidInput)
	}
	args = append(args, orgID)
	orgArg := len(args)
	args = append(args, id)
	idArg := len(args)

	query := fmt.Sprintf(`
		update todos set %s, updated_at=now()
		where organization_id=$%d and id=$%d
		returning id, organization_id, title, description, done, created_by, created_at, updated_at
	`, strings.Join(sets, ", "), orgArg, idArg)

	return scanTodo(s.db.QueryRowContext(ctx, query, args...))
}

func (s *TodoStore) Delete(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from todos where organization_id=$1 and id=$2`, orgID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return todo.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*todo.Todo, error) {
	var t todo.Todo
	err := row.Scan(&t.ID, &t.OrganizationID, &t.Title, &t.Description, &t.Done, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, todo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
