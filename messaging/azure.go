package messaging

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/config"
	"example.com/scaffold/services/platform/utils"
)

type AzureClient struct {
	client *azservicebus.Client
}

func NewAzureClient(cfg config.Config) (*AzureClient, error) {
	client, err := azservicebus.NewClientFromConnectionString(cfg.AzureQueueConnStr, nil)
	if err != nil {
		return nil, err
	}

	return &AzureClient{client: client}, nil
}

// NewQueueSender creates a sender bound to a queue
func (a *AzureClient) NewQueueSender(queueName string) (*QueueSender, error) {
	sender, err := a.client.NewSender(queueName, nil)
	if err != nil {
		return nil, err
	}
	return &QueueSender{sender: sender}, nil
}

// StartConsumer receives messages from a queue and feeds them to the
// processor until the context is cancelled. Failed messages are
// abandoned so the bus redelivers them.
func (a *AzureClient) StartConsumer(ctx context.Context, queueName string, processor MessageProcessor) error {
	log.Info().Msgf("Starting consumer for queue %s", queueName)

	receiver, err := a.client.NewReceiverForQueue(queueName, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Msgf("Error closing receiver for queue %s", queueName)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msgf("Error receiving messages from queue %s", queueName)
			time.Sleep(2 * time.Second)
			continue
		}

		for _, message := range messages {
			err := processor.ProcessMessage(ctx, message)
			if err != nil {
				log.Error().Err(err).Msgf("Error processing message '%s'", message.MessageID)
				if err := receiver.AbandonMessage(ctx, message, nil); err != nil {
					log.Error().Err(err).Msgf("(AbandonMessage) err: %v", err)
				}
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Msgf("(CompleteMessage) err: %v", err)
			}
		}
	}
}

// QueueSender sends messages to a single queue
type QueueSender struct {
	sender *azservicebus.Sender
}

// Send sends one message body to the queue, retrying transient bus
// disconnections
func (s *QueueSender) Send(ctx context.Context, messageID string, body []byte) error {
	msg := &azservicebus.Message{
		MessageID: &messageID,
		Body:      body,
	}

	return utils.RetryWithBackoff(ctx, func() error {
		return s.sender.SendMessage(ctx, msg, nil)
	}, 5)
}

// Close closes the underlying sender
func (s *QueueSender) Close(ctx context.Context) error {
	return s.sender.Close(ctx)
}
