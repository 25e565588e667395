package race

import (
	"fmt"
	"strings"
)

// EventKind names a race lifecycle event as emitted by the timing host.
type EventKind string

const (
	RaceStage   EventKind = "raceStage"
	RaceStart   EventKind = "raceStart"
	RaceStop    EventKind = "raceStop"
	LapRecorded EventKind = "raceLapRecorded"
)

var aliases = map[string]EventKind{
	"stage":           RaceStage,
	"racestage":       RaceStage,
	"start":           RaceStart,
	"racestart":       RaceStart,
	"stop":            RaceStop,
	"racestop":        RaceStop,
	"lap":             LapRecorded,
	"laprecorded":     LapRecorded,
	"racelaprecorded": LapRecorded,
}

// Kinds lists every lifecycle event the lighting plugin reacts to.
func Kinds() []EventKind {
	return []EventKind{RaceStage, RaceStart, RaceStop, LapRecorded}
}

// ParseEventKind accepts the host names ("raceStart") and short forms ("start").
func ParseEventKind(s string) (EventKind, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(s)))
	if k, ok := aliases[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown race event: %q", s)
}

// Args is the free-form payload the host passes to handlers.
type Args map[string]interface{}
