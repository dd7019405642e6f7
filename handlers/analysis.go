package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

// Command structs
type RequestAnalysisCommand struct {
	AnalysisID    string `json:"analysis_id" validate:"required"`
	ProjectID     string `json:"project_id" validate:"required"`
	AnalysisType  string `json:"analysis_type" validate:"required"`
	RequestedBy   string `json:"requested_by"`
	CorrelationID string `json:"correlation_id"`
}

type StartAnalysisCommand struct {
	AnalysisID    string `json:"analysis_id" validate:"required"`
	WorkerID      string `json:"worker_id" validate:"required"`
	Model         string `json:"model"`
	CorrelationID string `json:"correlation_id"`
}

type CompleteAnalysisCommand struct {
	AnalysisID    string `json:"analysis_id" validate:"required"`
	FindingsCount int    `json:"findings_count" validate:"min=0"`
	Summary       string `json:"summary"`
	CorrelationID string `json:"correlation_id"`
}

type FailAnalysisCommand struct {
	AnalysisID    string `json:"analysis_id" validate:"required"`
	Reason        string `json:"reason" validate:"required"`
	CorrelationID string `json:"correlation_id"`
}

// AnalysisHandler handles all analysis run commands
type AnalysisHandler struct {
	repo *eventstore.Repository
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(repo *eventstore.Repository) *AnalysisHandler {
	return &AnalysisHandler{repo: repo}
}

// HandleRequestAnalysis records a new analysis run
func (h *AnalysisHandler) HandleRequestAnalysis(ctx context.Context, cmd RequestAnalysisCommand) error {
	log.Info().Str("analysisID", cmd.AnalysisID).Msg("Handling RequestAnalysis command")

	if err := validateCommand(cmd.AnalysisID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewAnalysisAggregate(cmd.AnalysisID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Request(cmd.ProjectID, cmd.AnalysisType, cmd.RequestedBy); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleStartAnalysis marks an analysis run as running
func (h *AnalysisHandler) HandleStartAnalysis(ctx context.Context, cmd StartAnalysisCommand) error {
	log.Info().Str("analysisID", cmd.AnalysisID).Str("workerID", cmd.WorkerID).Msg("Handling StartAnalysis command")

	if err := validateCommand(cmd.AnalysisID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewAnalysisAggregate(cmd.AnalysisID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Start(cmd.WorkerID, cmd.Model); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleCompleteAnalysis records an analysis run's findings
func (h *AnalysisHandler) HandleCompleteAnalysis(ctx context.Context, cmd CompleteAnalysisCommand) error {
	log.Info().Str("analysisID", cmd.AnalysisID).Msg("Handling CompleteAnalysis command")

	if err := validateCommand(cmd.AnalysisID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewAnalysisAggregate(cmd.AnalysisID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Complete(cmd.FindingsCount, cmd.Summary); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}

// HandleFailAnalysis records a terminal analysis failure
func (h *AnalysisHandler) HandleFailAnalysis(ctx context.Context, cmd FailAnalysisCommand) error {
	log.Info().Str("analysisID", cmd.AnalysisID).Msg("Handling FailAnalysis command")

	if err := validateCommand(cmd.AnalysisID, cmd); err != nil {
		return err
	}

	aggregate := domain.NewAnalysisAggregate(cmd.AnalysisID)
	if err := h.repo.Load(ctx, aggregate); err != nil {
		return err
	}
	aggregate.SetCorrelation(cmd.CorrelationID, "")

	if err := aggregate.Fail(cmd.Reason); err != nil {
		return err
	}

	return h.repo.Save(ctx, aggregate)
}
