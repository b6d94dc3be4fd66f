package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"society/internal/core"
)

type EventKind string

const (
	// KindTransitioned is published after settlements move forward.
	KindTransitioned EventKind = "settlement.transitioned"
	// KindBatchGenerated carries a freshly generated batch to the export worker.
	KindBatchGenerated EventKind = "batch.generated"
)

// TransitionEvent describes one applied workflow transition.
type TransitionEvent struct {
	SettlementIDs []string              `json:"settlementIds"`
	From          core.SettlementStatus `json:"from"`
	To            core.SettlementStatus `json:"to"`
	Total         core.Money            `json:"total"`
	Actor         string                `json:"actor"`
}

// Event is the envelope of every message on the settlement queue. The batch
// travels in full so the worker does not need access to the service's store.
type Event struct {
	Kind       EventKind             `json:"kind"`
	Timestamp  time.Time             `json:"timestamp"`
	Transition *TransitionEvent      `json:"transition,omitempty"`
	Batch      *core.SettlementBatch `json:"batch,omitempty"`
}

func NewTransitionEvent(t TransitionEvent) *Event {
	return &Event{Kind: KindTransitioned, Timestamp: time.Now(), Transition: &t}
}

func NewBatchGeneratedEvent(b core.SettlementBatch) *Event {
	return &Event{Kind: KindBatchGenerated, Timestamp: time.Now(), Batch: &b}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and checks that its payload matches its kind.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindTransitioned:
		if e.Transition == nil {
			return nil, fmt.Errorf("%s event without transition", e.Kind)
		}
	case KindBatchGenerated:
		if e.Batch == nil {
			return nil, fmt.Errorf("%s event without batch", e.Kind)
		}
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return &e, nil
}
