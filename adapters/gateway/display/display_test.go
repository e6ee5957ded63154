package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

func bar(n int) string {
	return "[" + strings.Repeat("*", n) + strings.Repeat(" ", 18-n) + "]"
}

func TestRenderArmUnknown(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewDisplay(&buf).Render(model.DisplayState{Roll: 9, Pitch: 0, Yaw: 18}))

	assert.Equal(t, "\r"+bar(9)+bar(0)+bar(18)+"[?]["+strings.Repeat(" ", 14)+"]", buf.String())
}

func TestRenderArmAndPose(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)

	require.NoError(t, d.Render(model.DisplayState{Roll: 1, Pitch: 2, Yaw: 3, OnArm: true, Arm: model.ArmLeft, Pose: model.PoseFist}))
	assert.Equal(t, "\r"+bar(1)+bar(2)+bar(3)+"[L][fist          ]", buf.String())

	buf.Reset()
	require.NoError(t, d.Render(model.DisplayState{OnArm: true, Arm: model.ArmRight, Pose: model.PoseFingersSpread}))
	assert.True(t, strings.HasSuffix(buf.String(), "[R][fingersSpread ]"))
}

func TestRenderClampsGauges(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewDisplay(&buf).Render(model.DisplayState{Roll: -3, Pitch: 25, Yaw: 9}))

	assert.True(t, strings.HasPrefix(buf.String(), "\r"+bar(0)+bar(18)+bar(9)))
}

func TestSendEventPrintsJSON(t *testing.T) {
	var buf bytes.Buffer

	rec := model.NewRecord("onPose", 3)
	rec["pose"] = "rest"
	require.NoError(t, NewDisplay(&buf).SendEvent(rec))

	assert.JSONEq(t, `{"eventType":"onPose","pose":"rest","timestamp":"3"}`, strings.TrimSpace(buf.String()))
}
