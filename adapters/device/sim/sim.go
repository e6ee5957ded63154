package sim

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

const (
	defaultRssiEvery = 20
	defaultPoseEvery = 40
	// slices for one full yaw turn, 10s at 20Hz
	turnSlices = 200
)

var poseCycle = []model.Pose{
	model.PoseRest,
	model.PoseFist,
	model.PoseRest,
	model.PoseWaveIn,
	model.PoseWaveOut,
	model.PoseFingersSpread,
	model.PoseDoubleTap,
}

// SimConfig configures the simulated armband. When Script is set the hub
// replays that JSONL file of device events instead of synthesising motion;
// event timestamps in the file are microseconds from start.
type SimConfig struct {
	Script    string `yaml:"Script"`
	Seed      int64  `yaml:"Seed"`
	RssiEvery int    `yaml:"RssiEvery"`
	PoseEvery int    `yaml:"PoseEvery"`
}

type Device struct {
	Serial     uuid.UUID
	vibrations []model.VibrationType
	logger     zerolog.Logger
}

func (d *Device) Vibrate(v model.VibrationType) {
	d.vibrations = append(d.vibrations, v)
	d.logger.Debug().Str("serial", d.Serial.String()).Stringer("vibration", v).Msg("vibrate")
}

// Vibrations lists every vibration requested so far.
func (d *Device) Vibrations() []model.VibrationType {
	return d.vibrations
}

// Hub is an in-process stand-in for the armband SDK hub.
type Hub struct {
	conf      SimConfig
	listeners []model.IListener
	device    *Device
	pending   []model.DeviceEvent
	script    []model.DeviceEvent
	scriptPos int
	rnd       *rand.Rand
	clock     uint64
	slices    int
	poseIdx   int
	logger    zerolog.Logger
}

func NewHub(conf SimConfig, logl int) (*Hub, error) {
	var err error

	if conf.RssiEvery <= 0 {
		conf.RssiEvery = defaultRssiEvery
	}
	if conf.PoseEvery <= 0 {
		conf.PoseEvery = defaultPoseEvery
	}
	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	h := &Hub{
		conf:   conf,
		rnd:    rand.New(rand.NewSource(seed)),
		logger: createLogger(logl),
	}

	if conf.Script != "" {
		h.script, err = loadScript(conf.Script)
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

func createLogger(logLevel int) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel+zerolog.Level(logLevel)).
		With().Timestamp().Str("device", "sim").Logger()
}

// loadScript reads a JSONL file, one model.DeviceEvent per line.
func loadScript(path string) ([]model.DeviceEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(err, errors.New("open script file "+path))
	}
	defer f.Close()

	events := []model.DeviceEvent{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev model.DeviceEvent

		if len(scanner.Bytes()) == 0 {
			continue
		}
		err = json.Unmarshal(scanner.Bytes(), &ev)
		if err != nil {
			return nil, errors.Join(err, errors.New("parse script line"))
		}
		events = append(events, ev)
	}
	if scanner.Err() != nil {
		return nil, scanner.Err()
	}
	return events, nil
}

func (h *Hub) AddListener(l model.IListener) {
	h.listeners = append(h.listeners, l)
}

// WaitForDevice returns the simulated armband at once. Without a script the
// first Run delivers pair, connect and arm recognition.
func (h *Hub) WaitForDevice(ctx context.Context, timeout time.Duration) (model.IDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.device == nil {
		h.device = &Device{Serial: uuid.New(), logger: h.logger}
		if h.script == nil {
			h.pending = bootEvents(h.clock)
		}
		h.logger.Info().Str("serial", h.device.Serial.String()).Msg("simulated armband found")
	}
	return h.device, nil
}

// Run delivers the events of one slice of length d, then blocks until the
// slice is over.
func (h *Hub) Run(ctx context.Context, d time.Duration) error {
	if h.device == nil {
		return model.ErrDeviceNotFound
	}

	deadline := time.Now().Add(d)
	h.clock += uint64(d / time.Microsecond)

	events := h.pending
	h.pending = nil
	if h.script != nil {
		events = append(events, h.scripted()...)
	} else {
		events = append(events, h.synthesize()...)
	}

	for _, ev := range events {
		for _, l := range h.listeners {
			if err := model.Dispatch(l, h.device, ev); err != nil {
				h.logger.Warn().Err(err).Msg("event skipped")
			}
		}
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (h *Hub) scripted() []model.DeviceEvent {
	start := h.scriptPos
	for h.scriptPos < len(h.script) && h.script[h.scriptPos].Timestamp <= h.clock {
		h.scriptPos++
	}
	return h.script[start:h.scriptPos]
}

func bootEvents(ts uint64) []model.DeviceEvent {
	fw := &model.FirmwareVersion{Major: 1, Minor: 5, Patch: 1970, HardwareRev: 2}
	return []model.DeviceEvent{
		{Kind: model.KindPair, Timestamp: ts, Firmware: fw},
		{Kind: model.KindConnect, Timestamp: ts, Firmware: fw},
		{Kind: model.KindArmRecognized, Timestamp: ts, Arm: model.ArmRight, XDirection: model.XDirectionTowardWrist},
	}
}

func (h *Hub) synthesize() []model.DeviceEvent {
	h.slices++
	ts := h.clock

	yaw := 2*math.Pi*float64(h.slices%turnSlices)/turnSlices - math.Pi
	roll := 0.3 * math.Sin(float64(h.slices)/25)
	pitch := 0.05 * (h.rnd.Float64() - 0.5)
	rotation := fromEuler(roll, pitch, yaw)

	events := []model.DeviceEvent{
		{Kind: model.KindOrientation, Timestamp: ts, Rotation: &rotation},
		{Kind: model.KindAccelerometer, Timestamp: ts, Accel: &model.Vector3{
			X: h.noise(0.02), Y: h.noise(0.02), Z: 1 + h.noise(0.02),
		}},
		{Kind: model.KindGyroscope, Timestamp: ts, Gyro: &model.Vector3{
			X: h.noise(2), Y: h.noise(2), Z: 36 + h.noise(2),
		}},
	}

	if h.slices%h.conf.RssiEvery == 0 {
		events = append(events, model.DeviceEvent{Kind: model.KindRssi, Timestamp: ts, Rssi: int8(-40 - h.rnd.Intn(40))})
	}
	if h.slices%h.conf.PoseEvery == 0 {
		h.poseIdx = (h.poseIdx + 1) % len(poseCycle)
		events = append(events, model.DeviceEvent{Kind: model.KindPose, Timestamp: ts, Pose: poseCycle[h.poseIdx].String()})
	}
	return events
}

func (h *Hub) noise(amplitude float64) float32 {
	return float32(amplitude * (h.rnd.Float64()*2 - 1))
}

// fromEuler builds the unit quaternion of the given roll, pitch and yaw.
func fromEuler(roll, pitch, yaw float64) model.Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)

	return model.Quaternion{
		W: float32(cr*cp*cy + sr*sp*sy),
		X: float32(sr*cp*cy - cr*sp*sy),
		Y: float32(cr*sp*cy + sr*cp*sy),
		Z: float32(cr*cp*sy - sr*sp*cy),
	}
}
