package engine

// Broadcaster publishes a message to a downstream topic. Publish returns
// true if the downstream accepted the message. A false return means the
// engine must not mark the triggering fill processed, per the
// BroadcastFailed error class.
type Broadcaster interface {
	Publish(topic string, message any) bool
}

// NoopBroadcaster always accepts. It plays the role the source's trivial
// stdout broadcaster does: a default collaborator for tests and the demo
// command, never a dependency the core logic relies on beyond the
// interface.
type NoopBroadcaster struct{}

// Publish always returns true.
func (NoopBroadcaster) Publish(topic string, message any) bool {
	return true
}
