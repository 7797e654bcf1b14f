package models

// StreamEventType defines the kinds of events emitted by a generation run.
type StreamEventType string

const (
	StreamEventText  StreamEventType = "text"
	StreamEventDone  StreamEventType = "done"
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one event on a generation stream. Text events carry a relay
// chunk; exactly one done or error event terminates the stream, and error
// events carry the classified code.
type StreamEvent struct {
	Type    StreamEventType
	Content string
	Code    ErrorCode
}

// NewTextEvent creates a text relay event.
func NewTextEvent(content string) StreamEvent {
	return StreamEvent{Type: StreamEventText, Content: content}
}

// NewDoneEvent creates the terminal success event.
func NewDoneEvent() StreamEvent {
	return StreamEvent{Type: StreamEventDone}
}

// NewErrorEvent creates the terminal failure event.
func NewErrorEvent(code ErrorCode) StreamEvent {
	return StreamEvent{Type: StreamEventError, Code: code}
}
