package lighting

import (
	"fmt"
	"time"

	"github.com/denwilliams/go-wled-race/internal/color"
	"github.com/denwilliams/go-wled-race/internal/race"
)

// Effect is a WLED effect name, matched case-insensitively on the device.
type Effect string

const (
	EffectSolid Effect = "solid"
	EffectFade  Effect = "fade"
)

const (
	// Transition times are in tenths of a second.
	DefaultTransition = 7
	MinimalTransition = 1

	DefaultSpeed = 128
	MaxSpeed     = 255
)

// Command is a single segment update for the matrix.
type Command struct {
	Color      color.RGB
	Transition int
	Effect     Effect
	Speed      int
}

func (c Command) String() string {
	return fmt.Sprintf("color=%s transition=%d effect=%s speed=%d", c.Color, c.Transition, c.Effect, c.Speed)
}

// Step sends Command and then holds for Hold before the next step runs.
type Step struct {
	Command Command
	Hold    time.Duration
}

// Sequence is the ordered list of commands produced for one event.
type Sequence struct {
	Event race.EventKind
	Steps []Step
}

// Duration is the sum of all holds.
func (s Sequence) Duration() time.Duration {
	var d time.Duration
	for _, step := range s.Steps {
		d += step.Hold
	}
	return d
}
