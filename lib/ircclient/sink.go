package ircclient

// Sink receives everything a session produces, in the order it happens.
type Sink interface {
	OnMessage(msg *Message)
	OnStateChanged(state State)
	OnSessionInfo(info map[string]string)
	OnSocketError(err error)
}

// Hooks are the collaborators the session asks while connecting and
// handling messages. They are called synchronously with the session locked
// and must not call back into the session. Any of them may be nil.
type Hooks struct {
	// Password returns the server password for this connection attempt.
	Password func() string
	// Capabilities picks which of the available capabilities to request.
	Capabilities func(available []string) []string
	// CTCPReply overrides the default CTCP responder. It returns the reply
	// text without framing, or "" to send nothing.
	CTCPReply func(request *Message) string
}

// NopSink ignores everything. It can be embedded to implement only some of
// the Sink methods.
type NopSink struct{}

func (NopSink) OnMessage(*Message)              {}
func (NopSink) OnStateChanged(State)            {}
func (NopSink) OnSessionInfo(map[string]string) {}
func (NopSink) OnSocketError(error)             {}

// EventKind says which sink method an Event is for.
type EventKind int

const (
	MessageEvent EventKind = iota
	StateEvent
	InfoEvent
	SocketErrorEvent
)

// Event is one sink notification produced by a state machine transition.
type Event struct {
	Kind    EventKind
	Message *Message
	State   State
	Info    map[string]string
	Err     error
}

// Deliver hands the event to the matching sink method.
func (event Event) Deliver(sink Sink) {
	switch event.Kind {
	case MessageEvent:
		sink.OnMessage(event.Message)
	case StateEvent:
		sink.OnStateChanged(event.State)
	case InfoEvent:
		sink.OnSessionInfo(event.Info)
	case SocketErrorEvent:
		sink.OnSocketError(event.Err)
	}
}
