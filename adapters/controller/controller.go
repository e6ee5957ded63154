package controller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

const (
	defaultPollInterval = 50
	defaultFindTimeout  = 10000
)

// ControllerConfig drives the device loop. Durations are in milliseconds.
type ControllerConfig struct {
	PollInterval  int    `yaml:"PollInterval"`
	FindTimeout   int    `yaml:"FindTimeout"`
	PromptOnError bool   `yaml:"PromptOnError"`
	Device        string `yaml:"Device"`
}

type Controller struct {
	pollInterval time.Duration
	findTimeout  time.Duration
	hub          model.IHub
	listener     model.IListener
	state        func() model.DisplayState
	renderer     model.IRenderer
	logger       zerolog.Logger
}

// StatefulListener is a listener that also exposes the state to render.
type StatefulListener interface {
	model.IListener
	State() model.DisplayState
}

func NewController(conf ControllerConfig, hub model.IHub, l StatefulListener, r model.IRenderer, logger zerolog.Logger) Controller {
	if conf.PollInterval <= 0 {
		conf.PollInterval = defaultPollInterval
	}
	if conf.FindTimeout <= 0 {
		conf.FindTimeout = defaultFindTimeout
	}

	return Controller{
		pollInterval: time.Duration(conf.PollInterval) * time.Millisecond,
		findTimeout:  time.Duration(conf.FindTimeout) * time.Millisecond,
		hub:          hub,
		listener:     l,
		state:        l.State,
		renderer:     r,
		logger:       logger,
	}
}

// Start finds a device, registers the listener and then alternates between
// pumping device events and rendering until ctx is done. It returns nil on
// cancellation.
func (c Controller) Start(ctx context.Context) error {
	c.logger.Info().Msg("Attempting to find a Myo...")

	_, err := c.hub.WaitForDevice(ctx, c.findTimeout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	c.logger.Info().Msg("Connected to a Myo armband!")

	c.hub.AddListener(connectionLog{logger: c.logger})
	c.hub.AddListener(c.listener)

	for {
		err = c.hub.Run(ctx, c.pollInterval)
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			c.logger.Info().Msg("Controller: context received signal, shutting down...")
			return nil
		}
		if err != nil {
			return errors.Join(err, errors.New("device event loop"))
		}

		if err = c.renderer.Render(c.state()); err != nil {
			c.logger.Warn().Err(err).Msg("render failed")
		}
	}
}

// connectionLog reports connection changes; every other event is ignored.
type connectionLog struct {
	model.BaseListener
	logger zerolog.Logger
}

func (l connectionLog) OnConnect(_ model.IDevice, _ uint64, fw model.FirmwareVersion) {
	l.logger.Info().
		Uint("major", fw.Major).
		Uint("minor", fw.Minor).
		Uint("patch", fw.Patch).
		Msg("armband connected")
}

func (l connectionLog) OnDisconnect(model.IDevice, uint64) {
	l.logger.Warn().Msg("armband disconnected")
}
