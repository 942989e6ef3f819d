package sink

import "github.com/vovakirdan/wirechat-client/internal/core"

// Fanout forwards every call to each of its sinks in order.
type Fanout []core.Sink

// Open implements core.Sink.
func (f Fanout) Open(ch core.Channel) core.Log {
	logs := make(fanoutLog, 0, len(f))
	for _, s := range f {
		if l := s.Open(ch); l != nil {
			logs = append(logs, l)
		}
	}
	return logs
}

// Release implements core.Sink.
func (f Fanout) Release(ch core.Channel) {
	for _, s := range f {
		s.Release(ch)
	}
}

type fanoutLog []core.Log

func (f fanoutLog) Append(e core.Entry) {
	for _, l := range f {
		l.Append(e)
	}
}
