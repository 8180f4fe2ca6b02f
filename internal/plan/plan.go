// Package plan works out which raw keys must be fetched to decode a schema entry.
//
// Arrays need two round-trips: the element count is only known once the length
// slot has been read, and only then can the element keys be derived.
package plan

import (
	"errors"
	"fmt"

	"github.com/S0me0neR0man/kvschema/internal/entry"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/schema"
)

type State int

const (
	// PlanningLength waiting for the primary slot: the value itself, or the array count
	PlanningLength State = iota
	// PlanningElements waiting for the array elements
	PlanningElements
	// Complete all pairs collected
	Complete
)

var (
	ErrPlanComplete = errors.New("plan already complete")
)

func (s State) String() string {
	switch s {
	case PlanningLength:
		return "PlanningLength"
	case PlanningElements:
		return "PlanningElements"
	case Complete:
		return "Complete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Plan fetch state machine of one entry. Not safe for concurrent use.
type Plan struct {
	entry schema.Entry
	codec *entry.Codec

	state State
	count uint64
	keys  []kv.Key
	pairs []kv.Pair
}

// New starts in PlanningLength. c decodes the array count (nil - builtin types).
func New(e schema.Entry, c *entry.Codec) *Plan {
	if c == nil {
		c = entry.New(nil, 0)
	}
	return &Plan{
		entry: e,
		codec: c,
		state: PlanningLength,
		keys:  []kv.Key{e.Key},
	}
}

func (p *Plan) Entry() schema.Entry {
	return p.entry
}

func (p *Plan) State() State {
	return p.state
}

// Count decoded array count, valid once past PlanningLength
func (p *Plan) Count() uint64 {
	return p.count
}

// Keys to fetch for the current state, nil when Complete
func (p *Plan) Keys() []kv.Key {
	if p.state == Complete {
		return nil
	}
	out := make([]kv.Key, len(p.keys))
	copy(out, p.keys)
	return out
}

// Feed supplies the values of Keys(), in the same order, and advances the state.
// A nil value is an unset slot.
func (p *Plan) Feed(values [][]byte) error {
	if p.state == Complete {
		return ErrPlanComplete
	}
	if len(values) != len(p.keys) {
		return fmt.Errorf("%w: %s: planned %d keys, fed %d values", entry.ErrArrayLengthMismatch, p.state, len(p.keys), len(values))
	}

	var count uint64
	if p.state == PlanningLength && p.entry.IsArray() {
		var err error
		count, err = p.codec.DecodeLength(values[0])
		if err != nil {
			return err
		}
	}

	for i, k := range p.keys {
		p.pairs = append(p.pairs, kv.Pair{Key: k, Value: values[i]})
	}

	if p.state == PlanningElements || !p.entry.IsArray() {
		p.finish()
		return nil
	}

	p.count = count
	if count == 0 {
		p.finish()
		return nil
	}
	p.keys = make([]kv.Key, count)
	for i := range p.keys {
		p.keys[i] = kv.ElementKey(p.entry.Key, uint64(i+1))
	}
	p.state = PlanningElements
	return nil
}

func (p *Plan) finish() {
	p.keys = nil
	p.state = Complete
}

// Pairs collected so far, in fetch order
func (p *Plan) Pairs() []kv.Pair {
	out := make([]kv.Pair, len(p.pairs))
	copy(out, p.pairs)
	return out
}

// Decode decodes the collected pairs, the plan must be Complete
func (p *Plan) Decode() (any, error) {
	if p.state != Complete {
		return nil, fmt.Errorf("plan for %s is in state %s", p.entry.Name, p.state)
	}
	return p.codec.Decode(p.entry, p.pairs)
}
