package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

// Command structs
type RegisterTemplateCommand struct {
	TemplateID    string `json:"template_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	SourceRepo    string `json:"source_repo" validate:"required"`
	OwnerID       string `json:"owner_id"`
	CorrelationID string `json:"correlation_id"`
}

type PublishTemplateCommand struct {
	TemplateID    string `json:"template_id" validate:"required"`
	SemVer        string `json:"sem_ver" validate:"required"`
	ContentHash   string `json:"content_hash"`
	PublishedBy   string `json:"published_by"`
	CorrelationID string `json:"correlation_id"`
}

type DeprecateTemplateCommand struct {
	TemplateID    string `json:"template_id" validate:"required"`
	Reason        string `json:"reason"`
	DeprecatedBy  string `json:"deprecated_by"`
	CorrelationID string `json:"correlation_id"`
}

// TemplateHandler handles all template commands
type TemplateHandler struct {
	repo *eventstore.Repository
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(repo *eventstore.Repository) *TemplateHandler {
	return &TemplateHandler{repo: repo}
}

// HandleRegisterTemplate registers a new template
func (h *TemplateHandler) HandleRegisterTemplate(ctx context.Context, cmd RegisterTemplateCommand) error {
	log.Info().Str("templateID", cmd.TemplateID).Msg("Handling RegisterTemplate command")

	if err := validateCommand(cmd.TemplateID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewTemplateAggregate(cmd.TemplateID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Register(cmd.Name, cmd.Description, cmd.SourceRepo, cmd.OwnerID); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandlePublishTemplate publishes a template version
func (h *TemplateHandler) HandlePublishTemplate(ctx context.Context, cmd PublishTemplateCommand) error {
	log.Info().Str("templateID", cmd.TemplateID).Str("semVer", cmd.SemVer).Msg("Handling PublishTemplate command")

	if err := validateCommand(cmd.TemplateID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewTemplateAggregate(cmd.TemplateID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Publish(cmd.SemVer, cmd.ContentHash, cmd.PublishedBy); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleDeprecateTemplate deprecates a template
func (h *TemplateHandler) HandleDeprecateTemplate(ctx context.Context, cmd DeprecateTemplateCommand) error {
	log.Info().Str("templateID", cmd.TemplateID).Msg("Handling DeprecateTemplate command")

	if err := validateCommand(cmd.TemplateID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewTemplateAggregate(cmd.TemplateID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Deprecate(cmd.Reason, cmd.DeprecatedBy); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}
