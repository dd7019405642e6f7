package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

// Command structs
type RequestProvisioningCommand struct {
	ProvisioningID string `json:"provisioning_id" validate:"required"`
	ProjectID      string `json:"project_id" validate:"required"`
	RepoName       string `json:"repo_name" validate:"required"`
	Provider       string `json:"provider"`
	Visibility     string `json:"visibility" validate:"omitempty,oneof=private public internal"`
	RequestedBy    string `json:"requested_by"`
	CorrelationID  string `json:"correlation_id"`
}

type StartProvisioningCommand struct {
	ProvisioningID string `json:"provisioning_id" validate:"required"`
	WorkerID       string `json:"worker_id" validate:"required"`
	CorrelationID  string `json:"correlation_id"`
}

type CompleteProvisioningCommand struct {
	ProvisioningID string `json:"provisioning_id" validate:"required"`
	RepoURL        string `json:"repo_url" validate:"required,url"`
	DefaultBranch  string `json:"default_branch"`
	CorrelationID  string `json:"correlation_id"`
}

type FailProvisioningCommand struct {
	ProvisioningID string `json:"provisioning_id" validate:"required"`
	Reason         string `json:"reason" validate:"required"`
	CorrelationID  string `json:"correlation_id"`
}

// ProvisioningHandler handles all provisioning commands
type ProvisioningHandler struct {
	repo *eventstore.Repository
}

// NewProvisioningHandler creates a new provisioning handler
func NewProvisioningHandler(repo *eventstore.Repository) *ProvisioningHandler {
	return &ProvisioningHandler{repo: repo}
}

// HandleRequestProvisioning records a new provisioning request
func (h *ProvisioningHandler) HandleRequestProvisioning(ctx context.Context, cmd RequestProvisioningCommand) error {
	log.Info().Str("provisioningID", cmd.ProvisioningID).Msg("Handling RequestProvisioning command")

	if err := validateCommand(cmd.ProvisioningID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProvisioningAggregate(cmd.ProvisioningID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Request(cmd.ProjectID, cmd.RepoName, cmd.Provider, cmd.Visibility, cmd.RequestedBy); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleStartProvisioning marks a provisioning request as in progress
func (h *ProvisioningHandler) HandleStartProvisioning(ctx context.Context, cmd StartProvisioningCommand) error {
	log.Info().Str("provisioningID", cmd.ProvisioningID).Str("workerID", cmd.WorkerID).Msg("Handling StartProvisioning command")

	if err := validateCommand(cmd.ProvisioningID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProvisioningAggregate(cmd.ProvisioningID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Start(cmd.WorkerID); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleCompleteProvisioning records the provisioned repository
func (h *ProvisioningHandler) HandleCompleteProvisioning(ctx context.Context, cmd CompleteProvisioningCommand) error {
	log.Info().Str("provisioningID", cmd.ProvisioningID).Msg("Handling CompleteProvisioning command")

	if err := validateCommand(cmd.ProvisioningID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProvisioningAggregate(cmd.ProvisioningID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Complete(cmd.RepoURL, cmd.DefaultBranch); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleFailProvisioning records a terminal provisioning failure
func (h *ProvisioningHandler) HandleFailProvisioning(ctx context.Context, cmd FailProvisioningCommand) error {
	log.Info().Str("provisioningID", cmd.ProvisioningID).Msg("Handling FailProvisioning command")

	if err := validateCommand(cmd.ProvisioningID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewProvisioningAggregate(cmd.ProvisioningID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Fail(cmd.Reason); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}
