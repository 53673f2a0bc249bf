package engine

import "fmt"

// Phase is the lifecycle state of a game.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePlaying
	PhaseRoundOver
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseWaiting:   "waiting",
	PhasePlaying:   "playing",
	PhaseRoundOver: "round_over",
	PhaseFinished:  "finished",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for ph, name := range phaseNames {
		if name == string(b) {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}
