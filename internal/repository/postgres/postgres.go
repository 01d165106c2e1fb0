package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/domain"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/repository"
)

const uniqueViolation = "23505"

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository    = (*Repository)(nil)
	_ repository.ProjectRepository = (*Repository)(nil)
)

// Ping verifies the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

// GetUserByUsername fetches a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	row := r.pool.QueryRow(ctx, query, username)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateProject inserts a project row owned by the named user and returns the
// generated id. The owner lookup is folded into the insert so a token whose
// user row is missing yields no row instead of a foreign key error.
func (r *Repository) CreateProject(ctx context.Context, name, ownerUsername string) (int64, error) {
	const query = `INSERT INTO projects (name, owner_id)
		SELECT $1, u.id FROM users u WHERE u.username = $2
		RETURNING id`
	var id int64
	if err := r.pool.QueryRow(ctx, query, name, ownerUsername).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("insert project: %w", err)
	}
	return id, nil
}

// ListOwnedProjects returns every project owned by the named user.
func (r *Repository) ListOwnedProjects(ctx context.Context, username string) ([]domain.ProjectSummary, error) {
	const query = `SELECT p.id, p.name, p.created_at
		FROM projects p
		INNER JOIN users u ON p.owner_id = u.id
		WHERE u.username = $1`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]domain.ProjectSummary, 0)
	for rows.Next() {
		var p domain.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.CreationDate); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListSharedProjects returns every project the named user collaborates on.
func (r *Repository) ListSharedProjects(ctx context.Context, username string) ([]domain.SharedProject, error) {
	const query = `SELECT p.id, p.name
		FROM projects p
		INNER JOIN collaborators c ON c.project_id = p.id
		INNER JOIN users u ON u.id = c.user_id
		WHERE u.username = $1`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]domain.SharedProject, 0)
	for rows.Next() {
		var p domain.SharedProject
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// HasProjectAccess reports whether the user owns or collaborates on the
// project. An absent project or unknown user reports false.
func (r *Repository) HasProjectAccess(ctx context.Context, username string, projectID int64) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1
		FROM projects p
		LEFT JOIN collaborators c ON c.project_id = p.id
		WHERE p.id = $1
		  AND (p.owner_id = (SELECT id FROM users WHERE username = $2)
		    OR c.user_id = (SELECT id FROM users WHERE username = $2)))`
	var allowed bool
	if err := r.pool.QueryRow(ctx, query, projectID, username).Scan(&allowed); err != nil {
		return false, err
	}
	return allowed, nil
}

// DeleteOwnedProject deletes the project only when the named user owns it.
// Ownership check and deletion are one statement, so there is no
// read-then-delete race to exploit.
func (r *Repository) DeleteOwnedProject(ctx context.Context, projectID int64, ownerUsername string) (bool, error) {
	const query = `DELETE FROM projects
		WHERE id = $1
		  AND owner_id = (SELECT id FROM users WHERE username = $2)`
	tag, err := r.pool.Exec(ctx, query, projectID, ownerUsername)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AddCollaborator grants read access to a project. The insert is guarded by
// the grantor's ownership, so non-owners and absent projects fall out as zero
// rows. A repeated grant is reported as success.
func (r *Repository) AddCollaborator(ctx context.Context, projectID int64, ownerUsername, collaboratorUsername string) error {
	const query = `INSERT INTO collaborators (project_id, user_id)
		SELECT p.id, u.id
		FROM projects p, users u
		WHERE p.id = $1
		  AND p.owner_id = (SELECT id FROM users WHERE username = $2)
		  AND u.username = $3`
	tag, err := r.pool.Exec(ctx, query, projectID, ownerUsername, collaboratorUsername)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
