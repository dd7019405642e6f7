package messaging

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/handlers"
)

// Command type definitions
const (
	CreateProject  = "CreateProject"
	UpdateProject  = "UpdateProject"
	ArchiveProject = "ArchiveProject"
	RestoreProject = "RestoreProject"

	RegisterTemplate  = "RegisterTemplate"
	PublishTemplate   = "PublishTemplate"
	DeprecateTemplate = "DeprecateTemplate"

	RequestProvisioning  = "RequestProvisioning"
	StartProvisioning    = "StartProvisioning"
	CompleteProvisioning = "CompleteProvisioning"
	FailProvisioning     = "FailProvisioning"

	RequestAnalysis  = "RequestAnalysis"
	StartAnalysis    = "StartAnalysis"
	CompleteAnalysis = "CompleteAnalysis"
	FailAnalysis     = "FailAnalysis"
)

// CommandMessage is the common message structure for queued commands
type CommandMessage struct {
	CommandType string          `json:"commandType"`
	Data        json.RawMessage `json:"data"`
}

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// Processor dispatches queued commands to their handlers
type Processor struct {
	projectHandler      *handlers.ProjectHandler
	templateHandler     *handlers.TemplateHandler
	provisioningHandler *handlers.ProvisioningHandler
	analysisHandler     *handlers.AnalysisHandler
}

func NewProcessor(
	projectHandler *handlers.ProjectHandler,
	templateHandler *handlers.TemplateHandler,
	provisioningHandler *handlers.ProvisioningHandler,
	analysisHandler *handlers.AnalysisHandler,
) *Processor {
	return &Processor{
		projectHandler:      projectHandler,
		templateHandler:     templateHandler,
		provisioningHandler: provisioningHandler,
		analysisHandler:     analysisHandler,
	}
}

// ProcessMessage handles a single queued command. Rejections are
// logged and treated as handled so the bus does not redeliver a
// command that will never be accepted.
func (p *Processor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var msg CommandMessage
	if err := json.Unmarshal(message.Body, &msg); err != nil {
		return errors.Wrap(err, "error unmarshalling message")
	}

	log.Info().Str("commandType", msg.CommandType).Msg("Processing command")

	err := p.dispatch(ctx, msg)
	if rejection, ok := domain.AsRejection(err); ok {
		log.Warn().
			Str("commandType", msg.CommandType).
			Str("aggregateID", rejection.AggregateID).
			Str("kind", string(rejection.Kind)).
			Str("reason", rejection.Message).
			Msg("Command rejected")
		return nil
	}

	return err
}

func (p *Processor) dispatch(ctx context.Context, msg CommandMessage) error {
	switch msg.CommandType {
	// Project commands
	case CreateProject:
		var cmd handlers.CreateProjectCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.projectHandler.HandleCreateProject(ctx, cmd)

	case UpdateProject:
		var cmd handlers.UpdateProjectCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.projectHandler.HandleUpdateProject(ctx, cmd)

	case ArchiveProject:
		var cmd handlers.ArchiveProjectCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.projectHandler.HandleArchiveProject(ctx, cmd)

	case RestoreProject:
		var cmd handlers.RestoreProjectCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.projectHandler.HandleRestoreProject(ctx, cmd)

	// Template commands
	case RegisterTemplate:
		var cmd handlers.RegisterTemplateCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.templateHandler.HandleRegisterTemplate(ctx, cmd)

	case PublishTemplate:
		var cmd handlers.PublishTemplateCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.templateHandler.HandlePublishTemplate(ctx, cmd)

	case DeprecateTemplate:
		var cmd handlers.DeprecateTemplateCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.templateHandler.HandleDeprecateTemplate(ctx, cmd)

	// Provisioning commands
	case RequestProvisioning:
		var cmd handlers.RequestProvisioningCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.provisioningHandler.HandleRequestProvisioning(ctx, cmd)

	case StartProvisioning:
		var cmd handlers.StartProvisioningCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.provisioningHandler.HandleStartProvisioning(ctx, cmd)

	case CompleteProvisioning:
		var cmd handlers.CompleteProvisioningCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.provisioningHandler.HandleCompleteProvisioning(ctx, cmd)

	case FailProvisioning:
		var cmd handlers.FailProvisioningCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.provisioningHandler.HandleFailProvisioning(ctx, cmd)

	// Analysis commands
	case RequestAnalysis:
		var cmd handlers.RequestAnalysisCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.analysisHandler.HandleRequestAnalysis(ctx, cmd)

	case StartAnalysis:
		var cmd handlers.StartAnalysisCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.analysisHandler.HandleStartAnalysis(ctx, cmd)

	case CompleteAnalysis:
		var cmd handlers.CompleteAnalysisCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.analysisHandler.HandleCompleteAnalysis(ctx, cmd)

	case FailAnalysis:
		var cmd handlers.FailAnalysisCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return err
		}
		return p.analysisHandler.HandleFailAnalysis(ctx, cmd)

	default:
		return errors.Errorf("unsupported command type: %s", msg.CommandType)
	}
}
