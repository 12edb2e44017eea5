// Package entity defines the boundary between the adapter and the entity
// engine that owns properties, events and actions.
//
// The engine itself lives outside this module. This package only carries the
// values that cross the boundary:
//
//   - StateChange batches flowing from the engine to the adapter
//   - EventNotification values emitted by declared events
//   - ActionRequest values decoded from the broker and submitted back
//
// The adapter implements Listener; the engine implements ActionSink.
package entity
