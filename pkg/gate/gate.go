// Package gate holds the stage gate catalog and the typed gate values stored
// on each stage progress row.
package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Name identifies a gate. Gate names are scoped to the stage that requires them.
type Name string

const (
	CompactSigned  Name = "compactSigned"
	InvitationSent Name = "invitationSent"

	FeelHeardConfirmed Name = "feelHeardConfirmed"

	EmpathyDraftReady Name = "empathyDraftReady"
	EmpathyConsented  Name = "empathyConsented"
	PartnerValidated  Name = "partnerValidated"

	NeedsConfirmed        Name = "needsConfirmed"
	NeedsShared           Name = "needsShared"
	CommonGroundConfirmed Name = "commonGroundConfirmed"

	StrategiesSubmitted Name = "strategiesSubmitted"
	RankingsSubmitted   Name = "rankingsSubmitted"
	AgreementCreated    Name = "agreementCreated"
)

// Kind is the schema of a gate value.
type Kind int

const (
	KindBool Kind = iota
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var schema = map[Name]Kind{
	CompactSigned:         KindBool,
	InvitationSent:        KindTimestamp,
	FeelHeardConfirmed:    KindBool,
	EmpathyDraftReady:     KindBool,
	EmpathyConsented:      KindBool,
	PartnerValidated:      KindBool,
	NeedsConfirmed:        KindTimestamp,
	NeedsShared:           KindTimestamp,
	CommonGroundConfirmed: KindBool,
	StrategiesSubmitted:   KindBool,
	RankingsSubmitted:     KindBool,
	AgreementCreated:      KindBool,
}

var (
	ErrUnknownGate  = errors.New("unknown gate")
	ErrKindMismatch = errors.New("gate value kind does not match gate schema")
)

// KindOf returns the declared kind of a gate.
func KindOf(name Name) (Kind, bool) {
	k, ok := schema[name]
	return k, ok
}

// Value is a single gate value: either a boolean flag or a timestamp.
type Value struct {
	Kind Kind
	Flag bool
	At   *time.Time
}

func Bool(b bool) Value {
	return Value{Kind: KindBool, Flag: b}
}

func Timestamp(t time.Time) Value {
	at := t.UTC()
	return Value{Kind: KindTimestamp, At: &at}
}

// Satisfied reports whether the value counts as a met precondition.
func (v Value) Satisfied() bool {
	if v.Kind == KindTimestamp {
		return v.At != nil && !v.At.IsZero()
	}
	return v.Flag
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindTimestamp {
		if v.At == nil {
			return []byte("null"), nil
		}
		return json.Marshal(v.At.UTC().Format(time.RFC3339Nano))
	}
	return json.Marshal(v.Flag)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Value{Kind: KindTimestamp}
	case bool:
		*v = Bool(x)
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return fmt.Errorf("gate timestamp: %w", err)
		}
		*v = Timestamp(t)
	default:
		return fmt.Errorf("unsupported gate value %s", string(data))
	}
	return nil
}

// Map is the gate-satisfaction map of one stage progress row.
type Map map[Name]Value

// Set stores a value after checking it against the gate schema.
func (m Map) Set(name Name, v Value) error {
	kind, ok := schema[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGate, name)
	}
	if kind != v.Kind {
		return fmt.Errorf("%w: %s wants %s, got %s", ErrKindMismatch, name, kind, v.Kind)
	}
	m[name] = v
	return nil
}

// Mark satisfies a gate using its schema kind: true for boolean gates, the
// given time for timestamp gates.
func (m Map) Mark(name Name, at time.Time) error {
	kind, ok := schema[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGate, name)
	}
	if kind == KindTimestamp {
		return m.Set(name, Timestamp(at))
	}
	return m.Set(name, Bool(true))
}

func (m Map) Satisfied(name Name) bool {
	if m == nil {
		return false
	}
	v, ok := m[name]
	return ok && v.Satisfied()
}

func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if v.At != nil {
			at := *v.At
			v.At = &at
		}
		out[k] = v
	}
	return out
}
