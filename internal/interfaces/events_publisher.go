package interfaces

// EventPublisher is the engine's notification sink. Publishing is
// best-effort: failures are logged by the caller and never fail the
// underlying ledger mutation.
type EventPublisher interface {
	Publish(topic string, event any) error
}
