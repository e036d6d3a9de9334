// Package telemetry wires OpenTelemetry tracing and Pyroscope
// continuous profiling, both opt-in and both no-ops until Init/
// InitProfiling is called, mirroring the teacher's internal/telemetry.
package telemetry

// Config holds OpenTelemetry tracing configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint string
	Insecure bool

	// SampleRate is the trace sampling rate, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns a disabled, zero-cost configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "smbd",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
