package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEncodeSortedWithTrailingSeparator(t *testing.T) {
	rec := NewRecord("onPose", 42)
	rec["pose"] = "fist"

	assert.Equal(t, "eventType=onPose&pose=fist&timestamp=42&", rec.Encode())
}

func TestRecordEncodeKeepsValuesVerbatim(t *testing.T) {
	rec := Record{"a": "x&y=z", "b": "two words"}

	// no escaping: the '&' and '=' leak into the body
	assert.Equal(t, "a=x&y=z&b=two words&", rec.Encode())
}

func TestRecordEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", Record{}.Encode())
}

func TestRecordSetters(t *testing.T) {
	rec := NewRecord("onRssi", 18446744073709551615)
	rec.SetInt("rssi", -67)
	rec.SetFloat("rotation.x", 0.1)
	rec.SetFloat("rotation.w", 1)
	rec.SetUint("fw", 1970)

	require.Equal(t, "onRssi", rec.EventType())
	assert.Equal(t, "18446744073709551615", rec["timestamp"])
	assert.Equal(t, "-67", rec["rssi"])
	assert.Equal(t, "0.1", rec["rotation.x"])
	assert.Equal(t, "1", rec["rotation.w"])
	assert.Equal(t, "1970", rec["fw"])
	assert.Equal(t, []string{"eventType", "fw", "rotation.w", "rotation.x", "rssi", "timestamp"}, rec.Keys())
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "armLeft", ArmLeft.String())
	assert.Equal(t, "armRight", ArmRight.String())
	assert.Equal(t, "armUnknown", ArmUnknown.String())
	assert.Equal(t, "armUnknown", Arm(7).String())

	assert.Equal(t, "xDirectionTowardWrist", XDirectionTowardWrist.String())
	assert.Equal(t, "xDirectionTowardElbow", XDirectionTowardElbow.String())
	assert.Equal(t, "xDirectionUnknown", XDirection(-1).String())

	assert.Equal(t, "fingersSpread", PoseFingersSpread.String())
	assert.Equal(t, PoseWaveOut, ParsePose("waveOut"))
	assert.Equal(t, PoseUnknown, ParsePose("thumbsUp"))
	assert.Equal(t, "medium", VibrationMedium.String())
}
