package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// State identifies a conversation step.
type State string

const (
	// StateIdle indicates there is no active flow with the chat.
	StateIdle State = "idle"
	// StateFilling indicates the chat is answering template fields.
	StateFilling State = "filling"
)

// Transition events.
const (
	EventBegin    = "begin"
	EventCapture  = "capture"
	EventComplete = "complete"
)

var transitions = fsm.Events{
	{Name: EventBegin, Src: []string{string(StateIdle)}, Dst: string(StateFilling)},
	{Name: EventCapture, Src: []string{string(StateFilling)}, Dst: string(StateFilling)},
	{Name: EventComplete, Src: []string{string(StateFilling)}, Dst: string(StateIdle)},
}

// ErrNoFields is returned by Begin for templates without fields.
var ErrNoFields = errors.New("state: template has no fields")

// Transition applies event to from and returns the resulting state.
// Self transitions such as capture are not errors.
func Transition(ctx context.Context, from State, event string) (State, error) {
	machine := fsm.NewFSM(string(from), transitions, fsm.Callbacks{})
	if err := machine.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return from, fmt.Errorf("state: %s from %s: %w", event, from, err)
		}
	}
	return State(machine.Current()), nil
}

// Value is one captured field answer.
type Value struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

// Session is the conversation state of one chat.
// Values keep fill order and Index never decreases while a flow is active.
type Session struct {
	State     State
	PromptKey string
	FlowID    uuid.UUID
	Fields    []string
	Index     int
	Values    []Value
}

// Begin starts a flow for promptKey that will ask fields in order.
func Begin(ctx context.Context, promptKey string, fields []string) (*Session, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	st, err := Transition(ctx, StateIdle, EventBegin)
	if err != nil {
		return nil, err
	}
	return &Session{
		State:     st,
		PromptKey: promptKey,
		FlowID:    uuid.New(),
		Fields:    append([]string(nil), fields...),
	}, nil
}

// Field returns the field currently awaiting an answer.
func (s *Session) Field() (string, bool) {
	if s == nil || s.State != StateFilling || s.Index >= len(s.Fields) {
		return "", false
	}
	return s.Fields[s.Index], true
}

// Capture stores text as the answer to the current field and advances.
// done reports that the last field was answered and the session is idle again.
func (s *Session) Capture(ctx context.Context, text string) (field string, done bool, err error) {
	st, err := Transition(ctx, s.State, EventCapture)
	if err != nil {
		return "", false, err
	}
	field, ok := s.Field()
	if !ok {
		return "", false, fmt.Errorf("state: no field awaiting input for %q", s.PromptKey)
	}
	s.State = st
	s.Values = append(s.Values, Value{Field: field, Text: text})
	s.Index++
	if s.Index < len(s.Fields) {
		return field, false, nil
	}
	if s.State, err = Transition(ctx, s.State, EventComplete); err != nil {
		return field, false, err
	}
	return field, true, nil
}

// ValueMap returns the captured answers keyed by field; later answers win.
func (s *Session) ValueMap() map[string]string {
	out := make(map[string]string, len(s.Values))
	for _, v := range s.Values {
		out[v.Field] = v.Text
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Fields = append([]string(nil), s.Fields...)
	c.Values = append([]Value(nil), s.Values...)
	return &c
}
