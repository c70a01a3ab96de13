package event

// SessionStartAttrs accompanies a session_start event.
type SessionStartAttrs struct {
	Platform    PlatformInfo `json:"platform"`
	Environment string       `json:"environment,omitempty"`
}

func (SessionStartAttrs) Kind() Kind { return KindSessionStart }

// SessionEndAttrs carries the summary computed when a session ends.
type SessionEndAttrs struct {
	Reason       string  `json:"reason"`
	DurationMs   float64 `json:"duration_ms"`
	FeaturesUsed int     `json:"features_used"`
	Interactions int     `json:"interactions"`
	Errors       int     `json:"errors"`
	MeshPatterns int     `json:"mesh_patterns"`
}

func (SessionEndAttrs) Kind() Kind { return KindSessionEnd }

// MessageAttrs accompanies a message_send event.
type MessageAttrs struct {
	Channel      string `json:"channel,omitempty"`
	SizeBytes    int    `json:"size_bytes,omitempty"`
	MeshEnhanced bool   `json:"mesh_enhanced,omitempty"`
}

func (MessageAttrs) Kind() Kind { return KindMessageSend }

// FeatureAttrs accompanies a feature_use event.
type FeatureAttrs struct {
	Feature      string `json:"feature"`
	Success      bool   `json:"success"`
	MeshEnhanced bool   `json:"mesh_enhanced,omitempty"`
}

func (FeatureAttrs) Kind() Kind { return KindFeatureUse }

// MeshInteractAttrs accompanies a mesh_interaction event. Category is the
// derived grouping key used by the insight analyzer's popularity ranking.
type MeshInteractAttrs struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
}

func (MeshInteractAttrs) Kind() Kind { return KindMeshInteract }

// PerformanceAttrs accompanies a performance_sample event. RateHz and
// DurationMs feed the per-category performance rollup; Metric/Value feed the
// named running aggregates.
type PerformanceAttrs struct {
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Category   string  `json:"category,omitempty"`
	RateHz     float64 `json:"rate_hz,omitempty"`
	DurationMs float64 `json:"duration_ms,omitempty"`
}

func (PerformanceAttrs) Kind() Kind { return KindPerformance }

// ErrorAttrs accompanies an error event. Message and Stack are stored only
// after sanitization.
type ErrorAttrs struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Code    string `json:"code,omitempty"`
	Fatal   bool   `json:"fatal,omitempty"`
}

func (ErrorAttrs) Kind() Kind { return KindError }

// AccessibilityAttrs accompanies an accessibility_toggle event.
type AccessibilityAttrs struct {
	Toggle  string `json:"toggle"`
	Enabled bool   `json:"enabled"`
}

func (AccessibilityAttrs) Kind() Kind { return KindAccessibility }

// StoryProgressAttrs accompanies a story_progress event.
type StoryProgressAttrs struct {
	StoryID    string `json:"story_id"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	Completed  bool   `json:"completed"`
}

func (StoryProgressAttrs) Kind() Kind { return KindStoryProgress }
