package redux

// ActionCarrier is implemented by action types that travel with Metadata.
// Actions are otherwise immutable-by-convention, so WithMetadata returns
// a replacement rather than mutating the receiver.
type ActionCarrier interface {
	Action
	Metadata() Metadata
	WithMetadata(Metadata) Action
}

// EventCarrier is the Event equivalent of ActionCarrier.
type EventCarrier interface {
	Event
	Metadata() Metadata
	WithMetadata(Metadata) Event
}
