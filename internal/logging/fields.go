package logging

// Standardized attribute keys used across the writer and CLI.
const (
	FieldComponent = "component"
	FieldReel      = "reel"
	FieldFrame     = "frame"
	FieldEyes      = "eyes"
	FieldQueueSize = "queue_size"
	FieldEventType = "event_type"
)
