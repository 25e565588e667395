package lighting

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/denwilliams/go-wled-race/internal/color"
	"github.com/denwilliams/go-wled-race/internal/race"
)

var ErrUnsupportedEvent = errors.New("unsupported race event")

type Palette struct {
	Stage       color.Packed
	Start       color.Packed
	Stop        color.Packed
	LapFallback color.Packed
	Clear       color.Packed
}

func DefaultPalette() Palette {
	return Palette{
		Stage:       color.Blue,
		Start:       color.Green,
		Stop:        color.Red,
		LapFallback: color.Yellow,
		Clear:       color.None,
	}
}

// Timings are how long a color is held before the matrix is cleared.
type Timings struct {
	StartHold time.Duration
	StopHold  time.Duration
	LapHold   time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		StartHold: 3 * time.Second,
		StopHold:  3 * time.Second,
		LapHold:   1 * time.Second,
	}
}

// Payload carries the optional event data the mapper cares about.
type Payload struct {
	PilotColor *color.Packed
}

// PayloadFromArgs pulls the pilot color out of host event args. The host
// sends it either as a packed integer or as a hex string; anything else is
// treated as absent.
func PayloadFromArgs(args race.Args) Payload {
	raw, ok := args["color"]
	if !ok || raw == nil {
		return Payload{}
	}

	var p color.Packed
	switch v := raw.(type) {
	case int:
		p = color.Packed(v)
	case int64:
		p = color.Packed(v)
	case color.Packed:
		p = v
	case float64:
		// Fractions and values outside int64 are not colors.
		if v != math.Trunc(v) || math.Abs(v) >= 1<<63 {
			return Payload{}
		}
		p = color.Packed(int64(v))
	case string:
		parsed, err := color.Parse(v)
		if err != nil {
			return Payload{}
		}
		p = parsed
	default:
		return Payload{}
	}
	return Payload{PilotColor: &p}
}

type Mapper struct {
	palette Palette
	timings Timings
}

func NewMapper(palette Palette, timings Timings) *Mapper {
	return &Mapper{palette: palette, timings: timings}
}

// Map returns the command sequence for a lifecycle event.
func (m *Mapper) Map(kind race.EventKind, payload Payload) (Sequence, error) {
	switch kind {
	case race.RaceStage:
		return Sequence{Event: kind, Steps: []Step{
			{Command: Command{
				Color:      m.palette.Stage.RGB(),
				Transition: DefaultTransition,
				Effect:     EffectFade,
				Speed:      MaxSpeed,
			}},
		}}, nil

	case race.RaceStart:
		return Sequence{Event: kind, Steps: []Step{
			{Command: m.solid(m.palette.Start.RGB(), MinimalTransition), Hold: m.timings.StartHold},
			{Command: m.clear()},
		}}, nil

	case race.RaceStop:
		return Sequence{Event: kind, Steps: []Step{
			{Command: m.solid(m.palette.Stop.RGB(), DefaultTransition), Hold: m.timings.StopHold},
			{Command: m.clear()},
		}}, nil

	case race.LapRecorded:
		c := m.palette.LapFallback
		if payload.PilotColor != nil {
			c = *payload.PilotColor
		}
		return Sequence{Event: kind, Steps: []Step{
			{Command: m.solid(color.Decode(int(c)), MinimalTransition), Hold: m.timings.LapHold},
			{Command: m.clear()},
		}}, nil
	}

	return Sequence{}, fmt.Errorf("%w: %s", ErrUnsupportedEvent, kind)
}

func (m *Mapper) solid(c color.RGB, transition int) Command {
	return Command{
		Color:      c,
		Transition: transition,
		Effect:     EffectSolid,
		Speed:      DefaultSpeed,
	}
}

func (m *Mapper) clear() Command {
	return m.solid(m.palette.Clear.RGB(), MinimalTransition)
}
