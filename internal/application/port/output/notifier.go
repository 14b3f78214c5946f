package output

// EventType classifies a notification event
type EventType string

const (
	EventAssigned         EventType = "assigned"
	EventMentioned        EventType = "mentioned"
	EventTaskSplit        EventType = "task_split"
	EventSprintTransition EventType = "sprint_transition"
)

// Event is a best-effort notification payload. Delivery failures must never
// roll back the mutation that produced the event.
type Event struct {
	Type      EventType
	Actor     string
	Recipient string
	TaskKey   string
	Sprint    string
	Message   string
}

// Notifier delivers notification events best-effort
type Notifier interface {
	Notify(event Event) error
}
