package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskpilot/taskpilot-be/internal/models"
	"github.com/taskpilot/taskpilot-be/internal/storage"
)

// Compile-time interface checks.
var (
	_ storage.UserStore = (*Store)(nil)
	_ storage.TaskStore = (*Store)(nil)
)

// Store provides Postgres-backed persistence for users and tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to databaseURL and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS tasks_author_created_idx ON tasks (author_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row. A unique-index collision on email maps
// to storage.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (email, name, password_hash)
	VALUES ($1, $2, $3)
	RETURNING id, email, name, password_hash, created_at, updated_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Email, user.Name, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, email, name, password_hash, created_at, updated_at
	FROM users WHERE email = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
	SELECT id, email, name, password_hash, created_at, updated_at
	FROM users WHERE id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// taskColumns selects a task row together with its author projection.
const taskColumns = `
	t.id, t.title, t.description, t.status, t.author_id, t.created_at, t.updated_at,
	u.id, u.email, u.name
`

// CreateTask inserts a task. The foreign key on author_id is left to the
// database; callers translate violation codes.
func (s *Store) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const query = `
	WITH inserted AS (
		INSERT INTO tasks (title, description, status, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, description, status, author_id, created_at, updated_at
	)
	SELECT ` + taskColumns + `
	FROM inserted t
	JOIN users u ON u.id = t.author_id;
	`
	row := s.pool.QueryRow(ctx, query, task.Title, task.Description, task.Status, task.AuthorID)
	return scanTask(row)
}

// ListTasks returns every task owned by authorID, newest-created first.
func (s *Store) ListTasks(ctx context.Context, authorID int64) ([]models.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks t
	JOIN users u ON u.id = t.author_id
	WHERE t.author_id = $1
	ORDER BY t.created_at DESC;
	`
	rows, err := s.pool.Query(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask fetches a task by (id, author_id). Rows owned by other users are
// indistinguishable from absent rows.
func (s *Store) GetTask(ctx context.Context, id, authorID int64) (models.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks t
	JOIN users u ON u.id = t.author_id
	WHERE t.id = $1 AND t.author_id = $2;
	`
	return scanTask(s.pool.QueryRow(ctx, query, id, authorID))
}

// UpdateTask applies a partial mutation, still filtered by owner.
func (s *Store) UpdateTask(ctx context.Context, id, authorID int64, update storage.TaskUpdate) (models.Task, error) {
	const query = `
	WITH updated AS (
		UPDATE tasks SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			status = COALESCE($5, status),
			updated_at = NOW()
		WHERE id = $1 AND author_id = $2
		RETURNING id, title, description, status, author_id, created_at, updated_at
	)
	SELECT ` + taskColumns + `
	FROM updated t
	JOIN users u ON u.id = t.author_id;
	`
	row := s.pool.QueryRow(ctx, query, id, authorID, update.Title, update.Description, update.Status)
	return scanTask(row)
}

// DeleteTask removes a task owned by authorID. Deleting an absent or foreign
// row reports storage.ErrNotFound.
func (s *Store) DeleteTask(ctx context.Context, id, authorID int64) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND author_id = $2;`
	tag, err := s.pool.Exec(ctx, query, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	var author models.UserProjection
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.AuthorID,
		&task.CreatedAt, &task.UpdatedAt,
		&author.ID, &author.Email, &author.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, err
	}
	task.Author = &author
	return task, nil
}
