package core

// EventLogger is the subset of the observability event log the coordinator
// writes registration events to. Defining it here keeps core free of the
// observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
