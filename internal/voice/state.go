package voice

import "strings"

// State names one step of the synthesis cascade.
type State string

const (
	StatePiper  State = "piper"
	StateSystem State = "system"
	StateEspeak State = "espeak"
	StateSilent State = "silent"
)

// Next returns the state attempted after s fails. Silent is terminal.
func (s State) Next() State {
	switch s {
	case StatePiper:
		return StateSystem
	case StateSystem:
		return StateEspeak
	default:
		return StateSilent
	}
}

func (s State) String() string { return string(s) }

// ParseState maps a configured engine name to its entry state. Only the
// three real engines are selectable.
func ParseState(name string) (State, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "piper":
		return StatePiper, true
	case "system", "pyttsx3", "say":
		return StateSystem, true
	case "espeak", "espeak-ng":
		return StateEspeak, true
	default:
		return "", false
	}
}
