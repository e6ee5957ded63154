package model

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDeviceNotFound = errors.New("unable to find a Myo")
	ErrMissingID      = errors.New("device record has no _id")
	ErrUnknownKind    = errors.New("unknown device event kind")
)

type Arm int

const (
	ArmLeft Arm = iota
	ArmRight
	ArmUnknown
)

var armNames = [...]string{"armLeft", "armRight", "armUnknown"}

// String returns the wire name of the arm. Out of range values map to armUnknown.
func (a Arm) String() string {
	if a < ArmLeft || a > ArmUnknown {
		return armNames[ArmUnknown]
	}
	return armNames[a]
}

type XDirection int

const (
	XDirectionTowardWrist XDirection = iota
	XDirectionTowardElbow
	XDirectionUnknown
)

var xDirectionNames = [...]string{"xDirectionTowardWrist", "xDirectionTowardElbow", "xDirectionUnknown"}

func (x XDirection) String() string {
	if x < XDirectionTowardWrist || x > XDirectionUnknown {
		return xDirectionNames[XDirectionUnknown]
	}
	return xDirectionNames[x]
}

type Pose int

const (
	PoseRest Pose = iota
	PoseFist
	PoseWaveIn
	PoseWaveOut
	PoseFingersSpread
	PoseDoubleTap
	PoseUnknown
)

var poseNames = [...]string{"rest", "fist", "waveIn", "waveOut", "fingersSpread", "doubleTap", "unknown"}

func (p Pose) String() string {
	if p < PoseRest || p > PoseUnknown {
		return poseNames[PoseUnknown]
	}
	return poseNames[p]
}

// ParsePose maps a pose name back to its value; unrecognised names give PoseUnknown.
func ParsePose(name string) Pose {
	for i, n := range poseNames {
		if n == name {
			return Pose(i)
		}
	}
	return PoseUnknown
}

type VibrationType int

const (
	VibrationShort VibrationType = iota
	VibrationMedium
	VibrationLong
)

var vibrationNames = [...]string{"short", "medium", "long"}

func (v VibrationType) String() string {
	if v < VibrationShort || v > VibrationLong {
		return "unknown"
	}
	return vibrationNames[v]
}

type FirmwareVersion struct {
	Major       uint `json:"major"`
	Minor       uint `json:"minor"`
	Patch       uint `json:"patch"`
	HardwareRev uint `json:"hardwareRev"`
}

// Quaternion is a unit rotation as reported by the armband.
type Quaternion struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// GaugeScale is the number of steps of a display gauge.
const GaugeScale = 18

// DisplayState is what the console gauge shows. Each field holds the latest
// value of its event kind only.
type DisplayState struct {
	Roll  int
	Pitch int
	Yaw   int
	OnArm bool
	Arm   Arm
	Pose  Pose
}

// IDevice is a connected armband.
type IDevice interface {
	Vibrate(v VibrationType)
}

// IListener receives device events. Handlers are called synchronously from
// IHub.Run on the pumping goroutine.
type IListener interface {
	OnPair(d IDevice, timestamp uint64, fw FirmwareVersion)
	OnConnect(d IDevice, timestamp uint64, fw FirmwareVersion)
	OnDisconnect(d IDevice, timestamp uint64)
	OnArmRecognized(d IDevice, timestamp uint64, arm Arm, x XDirection)
	OnArmLost(d IDevice, timestamp uint64)
	OnPose(d IDevice, timestamp uint64, pose Pose)
	OnOrientationData(d IDevice, timestamp uint64, rotation Quaternion)
	OnAccelerometerData(d IDevice, timestamp uint64, accel Vector3)
	OnGyroscopeData(d IDevice, timestamp uint64, gyro Vector3)
	OnRssi(d IDevice, timestamp uint64, rssi int8)
}

// IHub is a source of device events.
type IHub interface {
	WaitForDevice(ctx context.Context, timeout time.Duration) (IDevice, error)
	AddListener(l IListener)
	Run(ctx context.Context, d time.Duration) error
}

// IGateway delivers a built event record somewhere.
type IGateway interface {
	SendEvent(rec Record) error
}

// IRenderer draws the display state.
type IRenderer interface {
	Render(state DisplayState) error
}

// BaseListener implements IListener with no-op handlers. Embed it to handle
// only some event kinds.
type BaseListener struct{}

func (BaseListener) OnPair(IDevice, uint64, FirmwareVersion) {}
func (BaseListener) OnConnect(IDevice, uint64, FirmwareVersion) {}
func (BaseListener) OnDisconnect(IDevice, uint64) {}
func (BaseListener) OnArmRecognized(IDevice, uint64, Arm, XDirection) {}
func (BaseListener) OnArmLost(IDevice, uint64) {}
func (BaseListener) OnPose(IDevice, uint64, Pose) {}
func (BaseListener) OnOrientationData(IDevice, uint64, Quaternion) {}
func (BaseListener) OnAccelerometerData(IDevice, uint64, Vector3) {}
func (BaseListener) OnGyroscopeData(IDevice, uint64, Vector3) {}
func (BaseListener) OnRssi(IDevice, uint64, int8) {}
