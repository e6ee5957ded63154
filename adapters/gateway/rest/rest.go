package rest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

const formContentType = "application/x-www-form-urlencoded"

// RestConfig holds the remote service settings. Timeout is in milliseconds;
// zero leaves requests without a deadline.
type RestConfig struct {
	Host      string `yaml:"Host"`
	DefaultID string `yaml:"DefaultID"`
	Timeout   int    `yaml:"Timeout"`
}

// Rest posts event records to {host}/myo/{deviceId}/event.
type Rest struct {
	host     string
	deviceID string
	client   *resty.Client
	logger   zerolog.Logger
}

type deviceRecord struct {
	ID string `json:"_id"`
}

func NewRest(conf RestConfig, logl int) *Rest {
	client := resty.New().
		SetBaseURL(conf.Host).
		SetRetryCount(0)
	if conf.Timeout > 0 {
		client.SetTimeout(time.Duration(conf.Timeout) * time.Millisecond)
	}

	return &Rest{
		host:     conf.Host,
		deviceID: conf.DefaultID,
		client:   client,
		logger:   createLogger(logl),
	}
}

func createLogger(logLevel int) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel+zerolog.Level(logLevel)).
		With().Timestamp().Str("gateway", "rest").Logger()
}

// LookupDevice fetches {host}/myo/{id} and keeps the _id of the returned
// record as the device id for every following event.
func (r *Rest) LookupDevice(ctx context.Context, id string) (string, error) {
	var dev deviceRecord

	resp, err := r.client.R().
		SetContext(ctx).
		Get("/myo/" + id)
	if err != nil {
		return "", errors.Join(err, errors.New("failed to get device "+id))
	}

	r.logger.Info().Int("code", resp.StatusCode()).Str("body", resp.String()).Msg("device lookup response")

	err = json.Unmarshal(resp.Body(), &dev)
	if err != nil {
		return "", errors.Join(err, errors.New("failed to parse device record"))
	}
	if dev.ID == "" {
		return "", model.ErrMissingID
	}

	r.deviceID = dev.ID
	return dev.ID, nil
}

func (r *Rest) DeviceID() string {
	return r.deviceID
}

// EventPath is the path events are posted to, relative to the host.
func (r *Rest) EventPath() string {
	return "/myo/" + r.deviceID + "/event"
}

// SendEvent posts rec form encoded. The response is not looked at; only a
// transport error is returned.
func (r *Rest) SendEvent(rec model.Record) error {
	_, err := r.client.R().
		SetHeader("Content-Type", formContentType).
		SetBody(rec.Encode()).
		Post(r.EventPath())
	if err != nil {
		return errors.Join(err, errors.New("failed to post "+rec.EventType()))
	}
	return nil
}
