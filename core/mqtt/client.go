package mqtt

// Client publishes run events to the broker and receives remote commands.
type Client interface {
	// Publish sends payload to topic. Retained messages are kept by the
	// broker for late subscribers.
	Publish(topic string, payload []byte, retained bool) error

	// OnCancel registers the handler invoked when a cancel command arrives
	// for a process id.
	OnCancel(fn func(processID string))
}
