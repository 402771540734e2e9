package gate

import "fmt"

// Stage is one ordered phase of the guided conversation.
type Stage int

const (
	StageCompact Stage = iota
	StageWitness
	StagePerspectiveStretch
	StageNeedsMapping
	StageAgreement
)

// TerminalStage is the last stage; nobody advances past it.
const TerminalStage = StageAgreement

func (s Stage) String() string {
	switch s {
	case StageCompact:
		return "compact"
	case StageWitness:
		return "witness"
	case StagePerspectiveStretch:
		return "perspective_stretch"
	case StageNeedsMapping:
		return "needs_mapping"
	case StageAgreement:
		return "agreement"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) Valid() bool {
	return s >= StageCompact && s <= TerminalStage
}

var catalog = map[Stage][]Name{
	StageCompact:            {CompactSigned},
	StageWitness:            {FeelHeardConfirmed},
	StagePerspectiveStretch: {EmpathyDraftReady, EmpathyConsented, PartnerValidated},
	StageNeedsMapping:       {NeedsConfirmed, NeedsShared, CommonGroundConfirmed},
	StageAgreement:          {StrategiesSubmitted, RankingsSubmitted, AgreementCreated},
}

// GatesFor returns the ordered gate names required to leave a stage.
func GatesFor(stage Stage) []Name {
	gates := catalog[stage]
	out := make([]Name, len(gates))
	copy(out, gates)
	return out
}

// Requires reports whether the gate is part of the stage's catalog entry.
func Requires(stage Stage, name Name) bool {
	for _, g := range catalog[stage] {
		if g == name {
			return true
		}
	}
	return false
}

// Unsatisfied lists, in catalog order, the gates of a stage not yet met in m.
func Unsatisfied(stage Stage, m Map) []Name {
	var missing []Name
	for _, g := range catalog[stage] {
		if !m.Satisfied(g) {
			missing = append(missing, g)
		}
	}
	return missing
}

// AllSatisfied is true when every gate of the stage is met.
func AllSatisfied(stage Stage, m Map) bool {
	return len(Unsatisfied(stage, m)) == 0
}

// Strings converts gate names for wire payloads.
func Strings(names []Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
