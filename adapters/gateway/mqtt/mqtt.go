package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

const publishTimeout = 200 * time.Millisecond

var ErrPublishTimeout = errors.New("mqtt publish timeout")

// MqttConf holds the configuration for the MQTT mirror.
type MqttConf struct {
	Connection string `yaml:"Connection"`
	Topic      string `yaml:"Topic"`
}

// Mqtt publishes every forwarded record as JSON on Topic.
type Mqtt struct {
	Topic    string
	MgtUrl   string
	logger   zerolog.Logger
	opt      *pmqtt.ClientOptions
	ClientID uuid.UUID
	client   pmqtt.Client
}

func NewMqtt(conf MqttConf, logl int, ctx context.Context, wg *sync.WaitGroup) (*Mqtt, error) {
	var (
		err        error
		cid        uuid.UUID
		mqttClient *Mqtt
		l          zerolog.Logger
	)

	cid = uuid.NewV4()
	l = createLogger(logl)
	mqttClient = &Mqtt{
		Topic:    conf.Topic,
		MgtUrl:   conf.Connection,
		logger:   l,
		ClientID: cid,
		opt: pmqtt.NewClientOptions().
			AddBroker(conf.Connection).
			SetClientID("myo-rest-bridge-" + cid.String()).
			SetCleanSession(true).
			SetAutoReconnect(true).
			SetTLSConfig(&tls.Config{
				InsecureSkipVerify: true,
			}).
			SetConnectionLostHandler(ConnectLostHandler(l)).
			SetOnConnectHandler(ConnectHandler(l)),
	}

	err = mqttClient.Connect()
	if err != nil {
		return mqttClient, err
	}

	wg.Add(1)
	mqttClient.setupContextListener(ctx, wg)

	return mqttClient, nil
}

// createLogger initializes a zerolog.Logger with standard settings.
func createLogger(logLevel int) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel+zerolog.Level(logLevel)).
		With().Timestamp().Int("pid", os.Getpid()).Logger()
}

// setupContextListener ensures proper disconnection when the context is canceled.
func (m *Mqtt) setupContextListener(ctx context.Context, wg *sync.WaitGroup) {
	go func() {
		<-ctx.Done()
		m.client.Disconnect(250)
		wg.Done()
		m.logger.Warn().Msg("Mqtt disconnected")
	}()
}

// SendEvent publishes rec on the mirror topic. A publish that does not
// complete within publishTimeout fails with ErrPublishTimeout.
func (m *Mqtt) SendEvent(rec model.Record) error {
	var (
		err   error
		b     []byte
		token pmqtt.Token
	)

	b, err = json.Marshal(rec)
	if err != nil {
		return errors.Join(err, errors.New("failed to marshal event"))
	}
	token = m.client.Publish(m.Topic, 1, false, b)
	if !token.WaitTimeout(publishTimeout) {
		m.logger.Error().Str("eventType", rec.EventType()).Msg("Timeout exceeded during publishing")
		return ErrPublishTimeout
	}
	if err = token.Error(); err != nil {
		return errors.Join(err, errors.New("failed to publish event"))
	}

	return nil
}

func (m *Mqtt) Connect() error {
	m.client = pmqtt.NewClient(m.opt)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		m.logger.Error().Err(token.Error()).Msg("Error connecting to mqtt broker")
		return errors.Join(token.Error(), errors.New("Error connecting to mqtt broker"))
	}
	return nil
}

// ConnectHandler returns a function that logs successful connections.
func ConnectHandler(logger zerolog.Logger) func(client pmqtt.Client) {
	return func(client pmqtt.Client) {
		logger.Info().Msg("Connected to mqtt broker")
	}
}

// ConnectLostHandler returns a function that logs a lost connection.
func ConnectLostHandler(logger zerolog.Logger) func(client pmqtt.Client, err error) {
	return func(client pmqtt.Client, err error) {
		logger.Warn().Err(err).Msg("Connection Lost")
	}
}
