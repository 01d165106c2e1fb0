package repository

import (
	"context"
	"encoding/json"

	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/domain"
)

// UserRepository persists editor accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// ProjectRepository persists canonical project records and collaboration
// grants in the relational store.
type ProjectRepository interface {
	// CreateProject inserts a project owned by the named user and returns the
	// generated id. Returns ErrNotFound when the username resolves to no user
	// row.
	CreateProject(ctx context.Context, name, ownerUsername string) (int64, error)
	ListOwnedProjects(ctx context.Context, username string) ([]domain.ProjectSummary, error)
	ListSharedProjects(ctx context.Context, username string) ([]domain.SharedProject, error)
	// HasProjectAccess reports whether the user owns or collaborates on the
	// project. Absent projects and unknown users report false.
	HasProjectAccess(ctx context.Context, username string, projectID int64) (bool, error)
	// DeleteOwnedProject removes the project only when the named user owns it,
	// as a single compound-predicate statement. Reports whether a row was
	// deleted.
	DeleteOwnedProject(ctx context.Context, projectID int64, ownerUsername string) (bool, error)
	// AddCollaborator grants read access, guarded by ownership of the project.
	// Returns ErrNotFound when the project is not owned by ownerUsername or
	// the collaborator username is unknown. Re-granting is a no-op.
	AddCollaborator(ctx context.Context, projectID int64, ownerUsername, collaboratorUsername string) error
}

// TreeRepository persists project content trees in the document store.
type TreeRepository interface {
	// CreateTree inserts the document for a new project. Returns
	// ErrAlreadyExists when a document is already present under that id.
	CreateTree(ctx context.Context, tree domain.ProjectTree) error
	// GetTree returns the stored document verbatim. Returns ErrNotFound when
	// no document exists for the project.
	GetTree(ctx context.Context, projectID int64) (json.RawMessage, error)
	// DeleteTree removes the document and reports how many documents were
	// removed. Zero is not an error; the relational record is authoritative.
	DeleteTree(ctx context.Context, projectID int64) (int64, error)
}
