package service

import (
	"github.com/Go-routine-4595/myo-rest-bridge/model"
	"github.com/rs/zerolog"
)

const (
	TagPair          = "onPair"
	TagConnect       = "onConnect"
	TagOrientation   = "onOrientationData"
	TagPose          = "onPose"
	TagArmRecognized = "onArmRecognized"
	TagArmLost       = "onArmLost"
	TagDisconnect    = "onDisconnect"
	TagAccelerometer = "onAccelerometerData"
	TagGyroscope     = "onGyroscopeData"
	TagRssi          = "onRssi"
)

type ForwarderConfig struct {
	// LegacyRssiTag sends RSSI records tagged onGyroscopeData, as older
	// clients did.
	LegacyRssiTag        bool `yaml:"LegacyRssiTag"`
	ForwardAccelerometer bool `yaml:"ForwardAccelerometer"`
	ForwardGyroscope     bool `yaml:"ForwardGyroscope"`
}

// Service turns device events into records, hands each one to the gateway
// and keeps the display state. It is a model.IListener and is not safe for
// concurrent use: the hub calls it from a single goroutine.
type Service struct {
	conf    ForwarderConfig
	gateway model.IGateway
	mirrors []model.IGateway
	state   model.DisplayState
	logger  zerolog.Logger
}

func NewService(conf ForwarderConfig, logger zerolog.Logger, g model.IGateway, mirrors ...model.IGateway) *Service {
	return &Service{
		conf:    conf,
		gateway: g,
		mirrors: mirrors,
		state:   model.DisplayState{Arm: model.ArmUnknown, Pose: model.PoseUnknown},
		logger:  logger,
	}
}

// State returns a copy of the current display state.
func (s *Service) State() model.DisplayState {
	return s.state
}

func (s *Service) OnPair(d model.IDevice, timestamp uint64, fw model.FirmwareVersion) {
	s.forward(firmwareRecord(TagPair, timestamp, fw))
}

func (s *Service) OnConnect(d model.IDevice, timestamp uint64, fw model.FirmwareVersion) {
	s.forward(firmwareRecord(TagConnect, timestamp, fw))
}

func (s *Service) OnOrientationData(d model.IDevice, timestamp uint64, q model.Quaternion) {
	s.state.Roll, s.state.Pitch, s.state.Yaw = Gauges(q)
	s.forward(orientationRecord(timestamp, q))
}

func (s *Service) OnPose(d model.IDevice, timestamp uint64, pose model.Pose) {
	s.state.Pose = pose

	if pose == model.PoseFist && d != nil {
		d.Vibrate(model.VibrationMedium)
	}

	s.forward(poseRecord(timestamp, pose))
}

func (s *Service) OnArmRecognized(d model.IDevice, timestamp uint64, arm model.Arm, x model.XDirection) {
	s.state.OnArm = true
	s.state.Arm = arm
	s.forward(armRecord(timestamp, arm, x))
}

func (s *Service) OnArmLost(d model.IDevice, timestamp uint64) {
	s.state.OnArm = false
	s.forward(model.NewRecord(TagArmLost, timestamp))
}

func (s *Service) OnDisconnect(d model.IDevice, timestamp uint64) {
	s.state.OnArm = false
	s.forward(model.NewRecord(TagDisconnect, timestamp))
}

// OnAccelerometerData is not forwarded unless ForwardAccelerometer is set:
// at the sample rate of the armband it would flood the service.
func (s *Service) OnAccelerometerData(d model.IDevice, timestamp uint64, accel model.Vector3) {
	rec := vectorRecord(TagAccelerometer, "accel", timestamp, accel)
	if s.conf.ForwardAccelerometer {
		s.forward(rec)
	}
}

func (s *Service) OnGyroscopeData(d model.IDevice, timestamp uint64, gyro model.Vector3) {
	rec := vectorRecord(TagGyroscope, "gyro", timestamp, gyro)
	if s.conf.ForwardGyroscope {
		s.forward(rec)
	}
}

func (s *Service) OnRssi(d model.IDevice, timestamp uint64, rssi int8) {
	s.forward(rssiRecord(s.rssiTag(), timestamp, rssi))
}

func (s *Service) rssiTag() string {
	if s.conf.LegacyRssiTag {
		return TagGyroscope
	}
	return TagRssi
}

// forward delivers rec without waiting on the outcome: a failed POST is
// dropped and never retried.
func (s *Service) forward(rec model.Record) {
	if err := s.gateway.SendEvent(rec); err != nil {
		s.logger.Debug().Err(err).Str("eventType", rec.EventType()).Msg("event not delivered")
	}

	for _, m := range s.mirrors {
		if err := m.SendEvent(rec); err != nil {
			s.logger.Warn().Err(err).Str("eventType", rec.EventType()).Msg("mirror failed")
		}
	}
}

func firmwareRecord(tag string, timestamp uint64, fw model.FirmwareVersion) model.Record {
	rec := model.NewRecord(tag, timestamp)
	rec.SetUint("firmwareVersion.firmwareVersionMajor", uint64(fw.Major))
	rec.SetUint("firmwareVersion.firmwareVersionMinor", uint64(fw.Minor))
	rec.SetUint("firmwareVersion.firmwareVersionPatch", uint64(fw.Patch))
	rec.SetUint("firmwareVersion.firmwareVersionHardwareRev", uint64(fw.HardwareRev))
	return rec
}

func orientationRecord(timestamp uint64, q model.Quaternion) model.Record {
	rec := model.NewRecord(TagOrientation, timestamp)
	rec.SetFloat("rotation.x", q.X)
	rec.SetFloat("rotation.y", q.Y)
	rec.SetFloat("rotation.z", q.Z)
	rec.SetFloat("rotation.w", q.W)
	return rec
}

func poseRecord(timestamp uint64, pose model.Pose) model.Record {
	rec := model.NewRecord(TagPose, timestamp)
	rec["pose"] = pose.String()
	return rec
}

func armRecord(timestamp uint64, arm model.Arm, x model.XDirection) model.Record {
	rec := model.NewRecord(TagArmRecognized, timestamp)
	rec["arm"] = arm.String()
	rec["xDirection"] = x.String()
	return rec
}

func vectorRecord(tag, prefix string, timestamp uint64, v model.Vector3) model.Record {
	rec := model.NewRecord(tag, timestamp)
	rec.SetFloat(prefix+".x", v.X)
	rec.SetFloat(prefix+".y", v.Y)
	rec.SetFloat(prefix+".z", v.Z)
	return rec
}

func rssiRecord(tag string, timestamp uint64, rssi int8) model.Record {
	rec := model.NewRecord(tag, timestamp)
	rec.SetInt("rssi", int64(rssi))
	return rec
}
