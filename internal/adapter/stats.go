package adapter

import "sync/atomic"

// Stats counts dispatch outcomes. All counters are monotonic.
type Stats struct {
	published        atomic.Uint64
	publishFailures  atomic.Uint64
	encodeFailures   atomic.Uint64
	ignoredChanges   atomic.Uint64
	unboundKeys      atomic.Uint64
	actionsDelivered atomic.Uint64
	decodeFailures   atomic.Uint64
	submitFailures   atomic.Uint64
	droppedMessages  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Published        uint64 `json:"published"`
	PublishFailures  uint64 `json:"publish_failures"`
	EncodeFailures   uint64 `json:"encode_failures"`
	IgnoredChanges   uint64 `json:"ignored_changes"`
	UnboundKeys      uint64 `json:"unbound_keys"`
	ActionsDelivered uint64 `json:"actions_delivered"`
	DecodeFailures   uint64 `json:"decode_failures"`
	SubmitFailures   uint64 `json:"submit_failures"`
	DroppedMessages  uint64 `json:"dropped_messages"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Published:        s.published.Load(),
		PublishFailures:  s.publishFailures.Load(),
		EncodeFailures:   s.encodeFailures.Load(),
		IgnoredChanges:   s.ignoredChanges.Load(),
		UnboundKeys:      s.unboundKeys.Load(),
		ActionsDelivered: s.actionsDelivered.Load(),
		DecodeFailures:   s.decodeFailures.Load(),
		SubmitFailures:   s.submitFailures.Load(),
		DroppedMessages:  s.droppedMessages.Load(),
	}
}
