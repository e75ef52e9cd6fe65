package validation

// Kind classifies a validation failure.
type Kind string

const (
	InvalidEnumValue     Kind = "InvalidEnumValue"
	MissingRequiredField Kind = "MissingRequiredField"
	EmptySelection       Kind = "EmptySelection"
	MalformedDate        Kind = "MalformedDate"
	OutOfRangeDate       Kind = "OutOfRangeDate"
	ConnectivityFailure  Kind = "ConnectivityFailure"
	MalformedAddress     Kind = "MalformedAddress"
	MalformedTemplate    Kind = "MalformedTemplate"
	IncompatibleSchema   Kind = "IncompatibleSchema"
)

// Failure is one problem with a configuration, attributed to the property
// keys a UI should highlight.
type Failure struct {
	Kind       Kind     `json:"kind"`
	Message    string   `json:"message"`
	Properties []string `json:"properties"`
	Detail     string   `json:"detail,omitempty"`
	Cause      error    `json:"-"`
}

// HasProperty reports whether the failure is attributed to key.
func (f Failure) HasProperty(key string) bool {
	for _, p := range f.Properties {
		if p == key {
			return true
		}
	}
	return false
}

// Collector accumulates failures in the order they are found.
type Collector struct {
	failures []Failure
}

// Add records a failure against props.
func (c *Collector) Add(kind Kind, message string, props ...string) {
	c.failures = append(c.failures, Failure{Kind: kind, Message: message, Properties: props})
}

// AddCause records a failure carrying the underlying error.
func (c *Collector) AddCause(kind Kind, message string, cause error, props ...string) {
	f := Failure{Kind: kind, Message: message, Properties: props, Cause: cause}
	if cause != nil {
		f.Detail = cause.Error()
	}
	c.failures = append(c.failures, f)
}

// Failures returns everything collected so far.
func (c *Collector) Failures() []Failure {
	return append([]Failure(nil), c.failures...)
}

// ForProperty filters failures by property key.
func ForProperty(failures []Failure, key string) []Failure {
	var out []Failure
	for _, f := range failures {
		if f.HasProperty(key) {
			out = append(out, f)
		}
	}
	return out
}
