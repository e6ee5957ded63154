package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"os"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

const bufferSize = 1024

// MqttHubConf points at the topic where a native SDK bridge publishes device
// events as JSON. Vibration commands go to Topic + "/vibrate".
type MqttHubConf struct {
	Connection string `yaml:"Connection"`
	Topic      string `yaml:"Topic"`
}

type vibrateCommand struct {
	Vibration string `json:"vibration"`
}

// Device forwards vibration requests back to the bridge.
type Device struct {
	topic   string
	publish func(topic string, payload []byte) error
	logger  zerolog.Logger
}

func (d *Device) Vibrate(v model.VibrationType) {
	b, err := json.Marshal(vibrateCommand{Vibration: v.String()})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to marshal vibrate command")
		return
	}
	if err = d.publish(d.topic, b); err != nil {
		d.logger.Warn().Err(err).Stringer("vibration", v).Msg("vibrate command not sent")
	}
}

// Hub receives events on paho's goroutines and queues them. Listeners are
// only called from Run.
type Hub struct {
	conf      MqttHubConf
	opt       *pmqtt.ClientOptions
	client    pmqtt.Client
	events    chan model.DeviceEvent
	first     *model.DeviceEvent
	listeners []model.IListener
	device    *Device
	logger    zerolog.Logger
}

func NewHub(conf MqttHubConf, logl int) *Hub {
	cid := uuid.NewV4()
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel+zerolog.Level(logl)).
		With().Timestamp().Str("device", "mqtt").Logger()

	return &Hub{
		conf:   conf,
		events: make(chan model.DeviceEvent, bufferSize),
		logger: l,
		opt: pmqtt.NewClientOptions().
			AddBroker(conf.Connection).
			SetClientID("myo-rest-bridge-hub-" + cid.String()).
			SetCleanSession(true).
			SetAutoReconnect(true).
			SetTLSConfig(&tls.Config{
				InsecureSkipVerify: true,
			}).
			SetConnectionLostHandler(func(client pmqtt.Client, err error) {
				l.Warn().Err(err).Msg("Connection Lost")
			}),
	}
}

func (h *Hub) AddListener(l model.IListener) {
	h.listeners = append(h.listeners, l)
}

// connect dials the broker and subscribes. Both steps give up when expired
// fires or ctx is done.
func (h *Hub) connect(ctx context.Context, expired <-chan time.Time) error {
	h.client = pmqtt.NewClient(h.opt)
	if err := await(ctx, expired, h.client.Connect()); err != nil {
		return errors.Join(err, errors.New("Error connecting to mqtt broker"))
	}
	if err := await(ctx, expired, h.client.Subscribe(h.conf.Topic, 1, h.onMessage)); err != nil {
		return errors.Join(err, errors.New("Error subscribing to "+h.conf.Topic))
	}
	h.logger.Info().Str("topic", h.conf.Topic).Msg("waiting for device events")
	return nil
}

func await(ctx context.Context, expired <-chan time.Time, token pmqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-expired:
		return model.ErrDeviceNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) onMessage(_ pmqtt.Client, msg pmqtt.Message) {
	var ev model.DeviceEvent

	if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
		h.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid device event")
		return
	}

	select {
	case h.events <- ev:
	default:
		h.logger.Warn().Str("kind", string(ev.Kind)).Msg("event buffer full, dropping")
	}
}

func (h *Hub) publish(topic string, payload []byte) error {
	token := h.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(200 * time.Millisecond) {
		return errors.New("publish timeout on " + topic)
	}
	return token.Error()
}

// WaitForDevice connects to the broker and waits for the first event of any
// armband. Connecting counts against timeout; once it has elapsed the call
// fails with model.ErrDeviceNotFound.
func (h *Hub) WaitForDevice(ctx context.Context, timeout time.Duration) (model.IDevice, error) {
	if h.device != nil {
		return h.device, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	h.opt.SetConnectTimeout(timeout)
	if err := h.connect(ctx, timer.C); err != nil {
		h.Close()
		return nil, err
	}

	select {
	case ev := <-h.events:
		h.first = &ev
		h.device = h.newDevice()
		return h.device, nil
	case <-timer.C:
		h.Close()
		return nil, model.ErrDeviceNotFound
	case <-ctx.Done():
		h.Close()
		return nil, ctx.Err()
	}
}

func (h *Hub) newDevice() *Device {
	return &Device{
		topic:   h.conf.Topic + "/vibrate",
		publish: h.publish,
		logger:  h.logger,
	}
}

// Run dispatches queued events for d.
func (h *Hub) Run(ctx context.Context, d time.Duration) error {
	if h.device == nil {
		return model.ErrDeviceNotFound
	}

	if h.first != nil {
		h.dispatch(*h.first)
		h.first = nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case ev := <-h.events:
			h.dispatch(ev)
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Hub) dispatch(ev model.DeviceEvent) {
	for _, l := range h.listeners {
		if err := model.Dispatch(l, h.device, ev); err != nil {
			h.logger.Warn().Err(err).Msg("event skipped")
		}
	}
}

func (h *Hub) Close() {
	if h.client != nil && h.client.IsConnected() {
		h.client.Disconnect(250)
	}
}
