package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

type fakeDevice struct{}

func (fakeDevice) Vibrate(model.VibrationType) {}

// fakeHub delivers one pose event per Run and cancels after maxRuns.
type fakeHub struct {
	findErr   error
	runErr    error
	listeners []model.IListener
	runs      int
	maxRuns   int
	cancel    context.CancelFunc
	timeout   time.Duration
	slice     time.Duration
}

func (h *fakeHub) WaitForDevice(_ context.Context, timeout time.Duration) (model.IDevice, error) {
	h.timeout = timeout
	if h.findErr != nil {
		return nil, h.findErr
	}
	return fakeDevice{}, nil
}

func (h *fakeHub) AddListener(l model.IListener) {
	h.listeners = append(h.listeners, l)
}

func (h *fakeHub) Run(ctx context.Context, d time.Duration) error {
	h.slice = d
	h.runs++
	if h.runErr != nil {
		return h.runErr
	}
	for _, l := range h.listeners {
		model.Dispatch(l, fakeDevice{}, model.DeviceEvent{Kind: model.KindPose, Timestamp: uint64(h.runs), Pose: "waveIn"})
	}
	if h.runs >= h.maxRuns {
		h.cancel()
		return ctx.Err()
	}
	return nil
}

type poseCounter struct {
	model.BaseListener
	poses int
}

func (p *poseCounter) OnPose(model.IDevice, uint64, model.Pose) { p.poses++ }

func (p *poseCounter) State() model.DisplayState {
	return model.DisplayState{Roll: p.poses}
}

type recordingRenderer struct {
	states []model.DisplayState
}

func (r *recordingRenderer) Render(s model.DisplayState) error {
	r.states = append(r.states, s)
	return nil
}

func TestStartRendersAfterEachRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := &fakeHub{maxRuns: 4, cancel: cancel}
	l := &poseCounter{}
	r := &recordingRenderer{}

	c := NewController(ControllerConfig{}, hub, l, r, zerolog.Nop())
	require.NoError(t, c.Start(ctx))

	assert.Equal(t, 10*time.Second, hub.timeout)
	assert.Equal(t, 50*time.Millisecond, hub.slice)
	assert.Equal(t, 4, l.poses)
	// the cancelled run is not rendered
	require.Len(t, r.states, 3)
	assert.Equal(t, 3, r.states[2].Roll)
}

func TestStartDeviceNotFound(t *testing.T) {
	hub := &fakeHub{findErr: model.ErrDeviceNotFound}

	c := NewController(ControllerConfig{FindTimeout: 100}, hub, &poseCounter{}, &recordingRenderer{}, zerolog.Nop())
	err := c.Start(context.Background())

	assert.ErrorIs(t, err, model.ErrDeviceNotFound)
	assert.Equal(t, 100*time.Millisecond, hub.timeout)
	assert.Zero(t, hub.runs)
}

func TestStartRunError(t *testing.T) {
	hub := &fakeHub{runErr: errors.New("usb unplugged")}

	c := NewController(ControllerConfig{PollInterval: 10}, hub, &poseCounter{}, &recordingRenderer{}, zerolog.Nop())
	err := c.Start(context.Background())

	assert.ErrorContains(t, err, "usb unplugged")
	assert.Equal(t, 10*time.Millisecond, hub.slice)
}

func TestStartRegistersConnectionLog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &fakeHub{maxRuns: 1, cancel: cancel}

	c := NewController(ControllerConfig{}, hub, &poseCounter{}, &recordingRenderer{}, zerolog.Nop())
	require.NoError(t, c.Start(ctx))

	require.Len(t, hub.listeners, 2)
	_, ok := hub.listeners[0].(connectionLog)
	assert.True(t, ok)
}
