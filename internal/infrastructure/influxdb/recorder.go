package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-adapter/internal/adapter"
)

// Measurement names written by Recorder.
const (
	MeasurementFailures = "adapter_failures"
	MeasurementEvents   = "adapter_events"
	MeasurementStats    = "adapter_stats"
)

// PointWriter accepts points for asynchronous writing. *Client satisfies it.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Recorder writes adapter dispatch outcomes as time series.
//
// It is an adapter.Reporter (one point per failure) and an
// adapter.EventObserver (one point per message on a synchronised event
// topic), and samples the adapter counters on an interval via Run.
type Recorder struct {
	writer    PointWriter
	adapterID string
	now       func() time.Time
}

var (
	_ adapter.Reporter      = (*Recorder)(nil)
	_ adapter.EventObserver = (*Recorder)(nil)
)

// NewRecorder returns a Recorder tagging every point with adapterID.
func NewRecorder(w PointWriter, adapterID string) *Recorder {
	return &Recorder{writer: w, adapterID: adapterID, now: time.Now}
}

// Report records a dispatch failure.
func (r *Recorder) Report(f adapter.Failure) {
	tags := map[string]string{
		"adapter_id": r.adapterID,
		"op":         string(f.Op),
	}
	if f.Key != "" {
		tags["key"] = f.Key
	}

	fields := map[string]any{"count": 1}
	if f.Topic != "" {
		fields["topic"] = f.Topic
	}
	if f.Err != nil {
		fields["error"] = f.Err.Error()
	}

	r.writer.WritePoint(write.NewPoint(MeasurementFailures, tags, fields, r.now()))
}

// ObserveEvent records a message received on an event topic.
func (r *Recorder) ObserveEvent(key, topic string, payload []byte) {
	r.writer.WritePoint(write.NewPoint(
		MeasurementEvents,
		map[string]string{"adapter_id": r.adapterID, "key": key},
		map[string]any{"topic": topic, "payload_bytes": len(payload)},
		r.now(),
	))
}

// RecordStats writes one sample of the adapter counters.
func (r *Recorder) RecordStats(s adapter.StatsSnapshot) {
	r.writer.WritePoint(write.NewPoint(
		MeasurementStats,
		map[string]string{"adapter_id": r.adapterID},
		map[string]any{
			"published":         s.Published,
			"publish_failures":  s.PublishFailures,
			"encode_failures":   s.EncodeFailures,
			"ignored_changes":   s.IgnoredChanges,
			"unbound_keys":      s.UnboundKeys,
			"actions_delivered": s.ActionsDelivered,
			"decode_failures":   s.DecodeFailures,
			"submit_failures":   s.SubmitFailures,
			"dropped_messages":  s.DroppedMessages,
		},
		r.now(),
	))
}

// Run samples source every interval until ctx is done.
func (r *Recorder) Run(ctx context.Context, interval time.Duration, source func() adapter.StatsSnapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RecordStats(source())
		}
	}
}
