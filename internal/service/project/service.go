package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/domain"
	"github.com/Minhajul-Abidin/Koala-Cloud-Editor/internal/repository"
)

// Service orchestrates project lifecycle operations across the relational
// store (ownership, collaboration) and the document store (content trees).
// The two writes inside Create and Delete are deliberately not transactional;
// divergence is logged where it happens and reconciled out of band.
type Service struct {
	projects repository.ProjectRepository
	trees    repository.TreeRepository
	logger   *slog.Logger
}

// New returns a project service.
func New(projects repository.ProjectRepository, trees repository.TreeRepository, logger *slog.Logger) Service {
	return Service{projects: projects, trees: trees, logger: logger}
}

var (
	// ErrNameRequired rejects a create request without a usable project name.
	ErrNameRequired = errors.New("project name is required")
	// ErrAccessDenied covers every fetch the subject may not read, including
	// projects that do not exist.
	ErrAccessDenied = errors.New("project access denied")
	// ErrUnknownOwner reports a verified token whose username resolves to no
	// user row. That is an authentication/data inconsistency, not bad input.
	ErrUnknownOwner = errors.New("authenticated user has no account record")
	// ErrTreeMissing reports an authorized fetch that found no tree document.
	// The stores disagree on the project's existence; masking it as an empty
	// tree would hide the skew.
	ErrTreeMissing = errors.New("project tree document missing")
	// ErrCollaboratorRequired rejects a grant without a target username.
	ErrCollaboratorRequired = errors.New("collaborator username is required")
)

// ListOwned returns every project the subject owns. No projects is an empty
// slice, not an error.
func (s Service) ListOwned(ctx context.Context, subject string) ([]domain.ProjectSummary, error) {
	return s.projects.ListOwnedProjects(ctx, subject)
}

// ListShared returns every project the subject collaborates on.
func (s Service) ListShared(ctx context.Context, subject string) ([]domain.SharedProject, error) {
	return s.projects.ListSharedProjects(ctx, subject)
}

// Fetch returns the project's tree document verbatim. The access check fails
// closed: a lookup error denies access rather than risking a grant. An
// authorized fetch with no document is store skew and surfaces as
// ErrTreeMissing instead of an empty result.
func (s Service) Fetch(ctx context.Context, subject string, projectID int64) (json.RawMessage, error) {
	allowed, err := s.projects.HasProjectAccess(ctx, subject, projectID)
	if err != nil {
		s.logger.Warn("project access check failed", "project_id", projectID, "error", err)
		return nil, ErrAccessDenied
	}
	if !allowed {
		return nil, ErrAccessDenied
	}
	doc, err := s.trees.GetTree(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("store skew: project row exists without tree document", "project_id", projectID)
			return nil, ErrTreeMissing
		}
		return nil, fmt.Errorf("fetch project tree: %w", err)
	}
	return doc, nil
}

// Create inserts the relational record, then the dependent tree document
// keyed by the generated id. A document-store failure after the relational
// insert leaves an orphaned row behind; that gap is logged here and not
// rolled back.
func (s Service) Create(ctx context.Context, subject, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrNameRequired
	}
	projectID, err := s.projects.CreateProject(ctx, name, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("verified token resolves to no user row", "username", subject)
			return 0, ErrUnknownOwner
		}
		return 0, fmt.Errorf("create project record: %w", err)
	}
	if err := s.trees.CreateTree(ctx, domain.NewEmptyTree(projectID)); err != nil {
		s.logger.Error("store skew: project row created but tree document write failed",
			"project_id", projectID, "error", err)
		return 0, fmt.Errorf("create project tree: %w", err)
	}
	s.logger.Info("project created", "project_id", projectID, "owner", subject)
	return projectID, nil
}

// Delete removes the project if and only if the subject owns it, then drops
// the tree document. The relational delete is authoritative: a missing
// document afterwards is tolerated pre-existing skew and only logged, while a
// document-store failure is surfaced so the divergence is not silent.
func (s Service) Delete(ctx context.Context, subject string, projectID int64) error {
	deleted, err := s.projects.DeleteOwnedProject(ctx, projectID, subject)
	if err != nil {
		return fmt.Errorf("delete project record: %w", err)
	}
	if !deleted {
		return repository.ErrNotFound
	}
	removed, err := s.trees.DeleteTree(ctx, projectID)
	if err != nil {
		s.logger.Error("store skew: project row deleted but tree document delete failed",
			"project_id", projectID, "error", err)
		return fmt.Errorf("delete project tree: %w", err)
	}
	if removed == 0 {
		s.logger.Warn("no tree document found for deleted project", "project_id", projectID)
	}
	s.logger.Info("project deleted", "project_id", projectID, "documents_removed", removed)
	return nil
}

// Grant adds a collaborator to a project the subject owns. Non-owners and
// absent projects both come back as not found, matching delete.
func (s Service) Grant(ctx context.Context, subject string, projectID int64, collaborator string) error {
	collaborator = strings.TrimSpace(collaborator)
	if collaborator == "" {
		return ErrCollaboratorRequired
	}
	if err := s.projects.AddCollaborator(ctx, projectID, subject, collaborator); err != nil {
		return err
	}
	s.logger.Info("collaborator granted", "project_id", projectID, "collaborator", collaborator)
	return nil
}
