package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

const poseWidth = 14

// Display draws the gauge line and can echo records as a mirror gateway.
type Display struct {
	out io.Writer
}

func NewDisplay(out io.Writer) Display {
	return Display{out: out}
}

// Render rewrites the current console line with the display state.
func (d Display) Render(s model.DisplayState) error {
	var b strings.Builder

	b.WriteByte('\r')
	for _, g := range []int{s.Roll, s.Pitch, s.Yaw} {
		writeGauge(&b, g)
	}

	if s.OnArm {
		pose := s.Pose.String()
		b.WriteString("[" + armLetter(s.Arm) + "]")
		b.WriteString("[" + pose + strings.Repeat(" ", max(0, poseWidth-len(pose))) + "]")
	} else {
		// arm and pose are unknown until the arm is recognised
		b.WriteString("[?][" + strings.Repeat(" ", poseWidth) + "]")
	}

	_, err := io.WriteString(d.out, b.String())
	return err
}

func writeGauge(b *strings.Builder, g int) {
	g = min(max(g, 0), model.GaugeScale)
	b.WriteByte('[')
	b.WriteString(strings.Repeat("*", g))
	b.WriteString(strings.Repeat(" ", model.GaugeScale-g))
	b.WriteByte(']')
}

func armLetter(a model.Arm) string {
	switch a {
	case model.ArmLeft:
		return "L"
	case model.ArmRight:
		return "R"
	}
	return "?"
}

// SendEvent prints rec as one JSON line.
func (d Display) SendEvent(rec model.Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(err, errors.New("failed to marshal event display.SendEvent"))
	}
	_, err = fmt.Fprintln(d.out, string(buf))
	return err
}
