package model

import (
	"errors"
	"fmt"
)

type EventKind string

const (
	KindPair          EventKind = "pair"
	KindConnect       EventKind = "connect"
	KindDisconnect    EventKind = "disconnect"
	KindArmRecognized EventKind = "armRecognized"
	KindArmLost       EventKind = "armLost"
	KindPose          EventKind = "pose"
	KindOrientation   EventKind = "orientation"
	KindAccelerometer EventKind = "accelerometer"
	KindGyroscope     EventKind = "gyroscope"
	KindRssi          EventKind = "rssi"
)

// DeviceEvent is the JSON form of a device event, used by the simulator
// scripts and by the MQTT device bridge. Only the fields of its kind are set.
type DeviceEvent struct {
	Kind       EventKind        `json:"kind"`
	Timestamp  uint64           `json:"timestamp"`
	Firmware   *FirmwareVersion `json:"firmware,omitempty"`
	Rotation   *Quaternion      `json:"rotation,omitempty"`
	Accel      *Vector3         `json:"accel,omitempty"`
	Gyro       *Vector3         `json:"gyro,omitempty"`
	Pose       string           `json:"pose,omitempty"`
	Arm        Arm              `json:"arm,omitempty"`
	XDirection XDirection       `json:"xDirection,omitempty"`
	Rssi       int8             `json:"rssi,omitempty"`
}

// Dispatch calls the handler of l matching ev.Kind.
func Dispatch(l IListener, d IDevice, ev DeviceEvent) error {
	switch ev.Kind {
	case KindPair:
		l.OnPair(d, ev.Timestamp, firmware(ev.Firmware))
	case KindConnect:
		l.OnConnect(d, ev.Timestamp, firmware(ev.Firmware))
	case KindDisconnect:
		l.OnDisconnect(d, ev.Timestamp)
	case KindArmRecognized:
		l.OnArmRecognized(d, ev.Timestamp, ev.Arm, ev.XDirection)
	case KindArmLost:
		l.OnArmLost(d, ev.Timestamp)
	case KindPose:
		l.OnPose(d, ev.Timestamp, ParsePose(ev.Pose))
	case KindOrientation:
		if ev.Rotation == nil {
			return errors.Join(ErrUnknownKind, errors.New("orientation event without rotation"))
		}
		l.OnOrientationData(d, ev.Timestamp, *ev.Rotation)
	case KindAccelerometer:
		l.OnAccelerometerData(d, ev.Timestamp, vector(ev.Accel))
	case KindGyroscope:
		l.OnGyroscopeData(d, ev.Timestamp, vector(ev.Gyro))
	case KindRssi:
		l.OnRssi(d, ev.Timestamp, ev.Rssi)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}
	return nil
}

func firmware(fw *FirmwareVersion) FirmwareVersion {
	if fw == nil {
		return FirmwareVersion{}
	}
	return *fw
}

func vector(v *Vector3) Vector3 {
	if v == nil {
		return Vector3{}
	}
	return *v
}
