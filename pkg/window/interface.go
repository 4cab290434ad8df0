package window

// WindowInfo represents information about the focused window
type WindowInfo struct {
	AppName     string
	WindowTitle string
}

// WindowEvent is a decoded focus-change notification
type WindowEvent struct {
	Focused bool
	Window  WindowInfo
}

// Source is the interface a compositor event stream must satisfy
type Source interface {
	// Subscribe registers for a topic and consumes the reply
	Subscribe(topic string) error

	// Next blocks until the next event payload is available
	Next() ([]byte, error)

	// Close releases the connection; a blocked Next returns an error
	Close() error
}
