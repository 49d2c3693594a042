// Package metrics defines the sinks that record optimization runs. A sink
// implements MetricsSink and may implement any of the optional recorder
// interfaces; callers check for them with a type assertion. Sinks are
// built from configuration through the factory registry and combined with
// NewMultiSink when several are configured.
package metrics
