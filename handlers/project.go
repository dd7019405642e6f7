package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

// Command structs
type CreateProjectCommand struct {
	ProjectID      string `json:"project_id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	OwnerID        string `json:"owner_id" validate:"required"`
	OrganizationID string `json:"organization_id"`
	TemplateID     string `json:"template_id"`
	CorrelationID  string `json:"correlation_id"`
}

type UpdateProjectCommand struct {
	ProjectID     string `json:"project_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	CorrelationID string `json:"correlation_id"`
}

type ArchiveProjectCommand struct {
	ProjectID     string `json:"project_id" validate:"required"`
	ArchivedBy    string `json:"archived_by" validate:"required"`
	Reason        string `json:"reason"`
	CorrelationID string `json:"correlation_id"`
}

type RestoreProjectCommand struct {
	ProjectID     string `json:"project_id" validate:"required"`
	RestoredBy    string `json:"restored_by" validate:"required"`
	CorrelationID string `json:"correlation_id"`
}

// ProjectHandler handles all project commands
type ProjectHandler struct {
	repo *eventstore.Repository
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(repo *eventstore.Repository) *ProjectHandler {
	return &ProjectHandler{repo: repo}
}

// HandleCreateProject creates a new project
func (h *ProjectHandler) HandleCreateProject(ctx context.Context, cmd CreateProjectCommand) error {
	log.Info().Str("projectID", cmd.ProjectID).Msg("Handling CreateProject command")

	if err := validateCommand(cmd.ProjectID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProjectAggregate(cmd.ProjectID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Create(cmd.Name, cmd.Description, cmd.OwnerID, cmd.OrganizationID, cmd.TemplateID); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleUpdateProject updates a project's metadata
func (h *ProjectHandler) HandleUpdateProject(ctx context.Context, cmd UpdateProjectCommand) error {
	log.Info().Str("projectID", cmd.ProjectID).Msg("Handling UpdateProject command")

	if err := validateCommand(cmd.ProjectID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProjectAggregate(cmd.ProjectID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Update(cmd.Name, cmd.Description); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleArchiveProject archives a project
func (h *ProjectHandler) HandleArchiveProject(ctx context.Context, cmd ArchiveProjectCommand) error {
	log.Info().Str("projectID", cmd.ProjectID).Msg("Handling ArchiveProject command")

	if err := validateCommand(cmd.ProjectID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProjectAggregate(cmd.ProjectID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Archive(cmd.ArchivedBy, cmd.Reason); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleRestoreProject restores an archived project
func (h *ProjectHandler) HandleRestoreProject(ctx context.Context, cmd RestoreProjectCommand) error {
	log.Info().Str("projectID", cmd.ProjectID).Msg("Handling RestoreProject command")

	if err := validateCommand(cmd.ProjectID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProjectAggregate(cmd.ProjectID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Restore(cmd.RestoredBy); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}
