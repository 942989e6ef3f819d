package core

// Sink renders routed entries. The core never keeps message history; sinks own it.
// Sinks are called from the session goroutine only.
type Sink interface {
	// Open returns the log for ch. Called once when the channel is created.
	Open(ch Channel) Log
	// Release is called when a private channel is closed.
	Release(ch Channel)
}

// Log is an append-only view of one channel.
type Log interface {
	Append(entry Entry)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Open(Channel) Log { return nopLog{} }
func (NopSink) Release(Channel)  {}

type nopLog struct{}

func (nopLog) Append(Entry) {}
