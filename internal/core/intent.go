package core

// IntentKind describes what kind of payload an outbound send produces.
type IntentKind int

const (
	// IntentChat is published to the broadcast destination.
	IntentChat IntentKind = iota
	// IntentPrivateChat is published to the private destination.
	IntentPrivateChat
)

// Intent is an outbound send bound to the channel that was active when it was composed.
type Intent struct {
	Kind    IntentKind
	Content string
	Target  Channel
}
