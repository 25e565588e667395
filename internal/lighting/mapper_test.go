package lighting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denwilliams/go-wled-race/internal/color"
	"github.com/denwilliams/go-wled-race/internal/race"
)

var black = color.RGB{}

func newTestMapper() *Mapper {
	return NewMapper(DefaultPalette(), DefaultTimings())
}

func TestMapStage(t *testing.T) {
	seq, err := newTestMapper().Map(race.RaceStage, Payload{})
	require.NoError(t, err)

	require.Len(t, seq.Steps, 1)
	assert.Equal(t, Command{
		Color:      color.RGB{B: 255},
		Transition: DefaultTransition,
		Effect:     EffectFade,
		Speed:      MaxSpeed,
	}, seq.Steps[0].Command)
	assert.Zero(t, seq.Steps[0].Hold)
	assert.Equal(t, race.RaceStage, seq.Event)
}

func TestMapStartIsGreenThenClear(t *testing.T) {
	m := newTestMapper()

	for i := 0; i < 3; i++ {
		seq, err := m.Map(race.RaceStart, Payload{})
		require.NoError(t, err)

		require.Len(t, seq.Steps, 2)
		first, second := seq.Steps[0], seq.Steps[1]

		assert.Equal(t, color.RGB{G: 255}, first.Command.Color)
		assert.Equal(t, EffectSolid, first.Command.Effect)
		assert.Equal(t, MinimalTransition, first.Command.Transition)
		assert.Equal(t, 3*time.Second, first.Hold)

		assert.Equal(t, black, second.Command.Color)
		assert.Equal(t, MinimalTransition, second.Command.Transition)
		assert.Zero(t, second.Hold)
	}
}

func TestMapStopIsRedThenClear(t *testing.T) {
	seq, err := newTestMapper().Map(race.RaceStop, Payload{})
	require.NoError(t, err)

	require.Len(t, seq.Steps, 2)
	assert.Equal(t, color.RGB{R: 255}, seq.Steps[0].Command.Color)
	assert.Equal(t, DefaultTransition, seq.Steps[0].Command.Transition)
	assert.Equal(t, EffectSolid, seq.Steps[0].Command.Effect)
	assert.Equal(t, 3*time.Second, seq.Steps[0].Hold)
	assert.Equal(t, black, seq.Steps[1].Command.Color)
	assert.Equal(t, 3*time.Second, seq.Duration())
}

func TestMapLapUsesPilotColor(t *testing.T) {
	c := color.Packed(0xFF00FF)
	seq, err := newTestMapper().Map(race.LapRecorded, Payload{PilotColor: &c})
	require.NoError(t, err)

	require.Len(t, seq.Steps, 2)
	assert.Equal(t, color.RGB{R: 255, G: 0, B: 255}, seq.Steps[0].Command.Color)
	assert.Equal(t, MinimalTransition, seq.Steps[0].Command.Transition)
	assert.Equal(t, time.Second, seq.Steps[0].Hold)
	assert.Equal(t, black, seq.Steps[1].Command.Color)
}

func TestMapLapWithoutPayloadFallsBack(t *testing.T) {
	seq, err := newTestMapper().Map(race.LapRecorded, Payload{})
	require.NoError(t, err)
	assert.Equal(t, color.RGB{R: 255, G: 255}, seq.Steps[0].Command.Color)
}

func TestMapCustomPaletteAndTimings(t *testing.T) {
	palette := DefaultPalette()
	palette.Start = color.Purple
	palette.Clear = color.White
	m := NewMapper(palette, Timings{StartHold: 10 * time.Millisecond})

	seq, err := m.Map(race.RaceStart, Payload{})
	require.NoError(t, err)
	assert.Equal(t, color.Purple.RGB(), seq.Steps[0].Command.Color)
	assert.Equal(t, 10*time.Millisecond, seq.Steps[0].Hold)
	assert.Equal(t, color.White.RGB(), seq.Steps[1].Command.Color)
}

func TestMapUnsupported(t *testing.T) {
	_, err := newTestMapper().Map(race.EventKind("heatSet"), Payload{})
	assert.ErrorIs(t, err, ErrUnsupportedEvent)
}

func TestPayloadFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args race.Args
		want *color.Packed
	}{
		{name: "nil args", args: nil},
		{name: "missing color", args: race.Args{"pilot_id": 3}},
		{name: "nil color", args: race.Args{"color": nil}},
		{name: "int", args: race.Args{"color": 0xFF00FF}, want: packed(0xFF00FF)},
		{name: "json number", args: race.Args{"color": float64(65280)}, want: packed(0x00FF00)},
		{name: "fractional number", args: race.Args{"color": 1.5}},
		{name: "huge number", args: race.Args{"color": 1e300}},
		{name: "huge negative number", args: race.Args{"color": -1e300}},
		{name: "int64 overflow", args: race.Args{"color": float64(1 << 63)}},
		{name: "hex string", args: race.Args{"color": "#0000ff"}, want: packed(0x0000FF)},
		{name: "bad string", args: race.Args{"color": "not-a-color"}},
		{name: "wrong type", args: race.Args{"color": []int{1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PayloadFromArgs(tt.args)
			if tt.want == nil {
				assert.Nil(t, got.PilotColor)
				return
			}
			require.NotNil(t, got.PilotColor)
			assert.Equal(t, *tt.want, *got.PilotColor)
		})
	}
}

func TestMapLapWithOutOfRangeColorFallsBack(t *testing.T) {
	m := NewMapper(DefaultPalette(), DefaultTimings())

	seq, err := m.Map(race.LapRecorded, PayloadFromArgs(race.Args{"color": 1e300}))
	require.NoError(t, err)
	assert.Equal(t, color.Yellow.RGB(), seq.Steps[0].Command.Color)
}

func packed(p color.Packed) *color.Packed {
	return &p
}
