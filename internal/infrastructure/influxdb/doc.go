// Package influxdb records adapter dispatch outcomes in InfluxDB v2.
//
// Client wraps the batching, non-blocking write API. Recorder turns
// dispatch failures, observed event messages and periodic counter samples
// into points:
//
//	adapter_failures  tags: adapter_id, op, key    fields: count, topic, error
//	adapter_events    tags: adapter_id, key        fields: topic, payload_bytes
//	adapter_stats     tags: adapter_id             fields: one per counter
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	rec := influxdb.NewRecorder(client, cfg.Adapter.ID)
//	go rec.Run(ctx, 30*time.Second, a.Stats)
package influxdb
