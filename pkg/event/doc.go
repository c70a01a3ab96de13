// Package event defines the canonical telemetry event model.
//
// # Overview
//
// An Event is one immutable, timestamped record of a tracked occurrence.
// Each event kind carries a dedicated attribute struct (a tagged union via
// the Attributes interface) instead of a free-form attribute bag, so known
// kinds have known schemas while new kinds remain easy to add.
//
// # Usage Example
//
// Build an event:
//
//	ev := event.Event{
//		Kind:       event.KindFeatureUse,
//		Timestamp:  time.Now().UTC(),
//		SessionRef: anonRef,
//		Attrs:      event.FeatureAttrs{Feature: "mesh_brush", Success: true},
//	}
//
// Events marshal to JSON for sink delivery; sinks treat batches as opaque
// ordered sequences.
package event
