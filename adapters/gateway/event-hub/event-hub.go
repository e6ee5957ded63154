package event_hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

// connection string can have the event hub name like this
// Endpoint=sb://<namespace>.servicebus.windows.net/;SharedAccessKeyName=<KeyName>;SharedAccessKey=<KeyValue>;EntityPath=<hub>
// see https://learn.microsoft.com/en-us/azure/event-hubs/event-hubs-get-connection-string

type EventHubConfig struct {
	Connection   string `yaml:"connection"`
	EventHubName string `yaml:"EventHubName"`
	// SendTimeout bounds one SendEvent call, in milliseconds.
	SendTimeout int `yaml:"SendTimeout"`
}

const defaultSendTimeout = 200

type EventHub struct {
	producerClient *azeventhubs.ProducerClient
	deviceID       string
	timeout        time.Duration
}

func NewEventHub(ctx context.Context, wg *sync.WaitGroup, conf EventHubConfig, deviceID string, logger zerolog.Logger) (*EventHub, error) {
	var (
		err            error
		producerClient *azeventhubs.ProducerClient
	)
	producerClient, err = azeventhubs.NewProducerClientFromConnectionString(conf.Connection, conf.EventHubName, nil)
	if err != nil {
		return nil, errors.Join(err, errors.New("failed to create producer client"))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		err := producerClient.Close(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("failed to close producer client")
		}
	}()

	if conf.SendTimeout <= 0 {
		conf.SendTimeout = defaultSendTimeout
	}

	return &EventHub{
		producerClient: producerClient,
		deviceID:       deviceID,
		timeout:        time.Duration(conf.SendTimeout) * time.Millisecond,
	}, nil
}

// SendEvent sends rec as a single event. The device id is used as the
// partition key so the events of one armband stay ordered. Creating and
// sending the batch share one deadline.
func (e EventHub) SendEvent(rec model.Record) error {
	var (
		buf   []byte
		err   error
		batch *azeventhubs.EventDataBatch
	)

	buf, err = json.Marshal(rec)
	if err != nil {
		return errors.Join(err, errors.New("failed to marshal event event_hub.SendEvent"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	batch, err = e.producerClient.NewEventDataBatch(ctx, &azeventhubs.EventDataBatchOptions{
		PartitionKey: &e.deviceID,
	})
	if err != nil {
		return errors.Join(err, errors.New("failed to create event data batch"))
	}

	err = batch.AddEventData(createEventForRecord(buf, rec), nil)
	if errors.Is(err, azeventhubs.ErrEventDataTooLarge) {
		// a single record can never fit, no point in retrying
		return errors.Join(err, errors.New("failed to send event, too large"))
	} else if err != nil {
		return errors.Join(err, errors.New("failed to send event"))
	}

	if err = e.producerClient.SendEventDataBatch(ctx, batch, nil); err != nil {
		return errors.Join(err, errors.New("failed to send event couldn't send the batch"))
	}

	return nil
}

func createEventForRecord(buf []byte, rec model.Record) *azeventhubs.EventData {
	contentType := "application/json"
	return &azeventhubs.EventData{
		Body:        buf,
		ContentType: &contentType,
		Properties: map[string]any{
			"eventType": rec.EventType(),
		},
	}
}
