package event

import "time"

// Kind identifies what a tracked event describes.
type Kind string

// Known event kinds. Every kind has a matching Attributes type below.
const (
	KindSessionStart  Kind = "session_start"
	KindSessionEnd    Kind = "session_end"
	KindMessageSend   Kind = "message_send"
	KindFeatureUse    Kind = "feature_use"
	KindMeshInteract  Kind = "mesh_interaction"
	KindPerformance   Kind = "performance_sample"
	KindError         Kind = "error"
	KindAccessibility Kind = "accessibility_toggle"
	KindStoryProgress Kind = "story_progress"
)

// Attributes is the typed payload attached to an Event. Each kind carries its
// own attribute struct so malformed fields fail at compile time rather than
// surfacing as missing map keys at read time.
type Attributes interface {
	Kind() Kind
}

// Event is one immutable, timestamped record of a tracked occurrence.
// SessionRef holds the anonymized session identifier, or "" for events that
// are not scoped to a session.
type Event struct {
	Kind       Kind       `json:"kind"`
	Timestamp  time.Time  `json:"timestamp"`
	SessionRef string     `json:"session_ref,omitempty"`
	Attrs      Attributes `json:"attributes,omitempty"`
}

// Batch is an ordered sequence of events handed to a sink in one delivery.
type Batch []Event

// PlatformInfo describes the client environment a session runs on.
type PlatformInfo struct {
	OS          string `json:"os"`
	OSVersion   string `json:"os_version,omitempty"`
	AppVersion  string `json:"app_version"`
	DeviceModel string `json:"device_model,omitempty"`
	Locale      string `json:"locale,omitempty"`
}
