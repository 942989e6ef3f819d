package core

import "sync"

type recordingSink struct {
	mu       sync.Mutex
	logs     map[Channel]*recordingLog
	opened   []Channel
	released []Channel
}

func newRecordingSink() *recordingSink {
	return &recordingSink{logs: make(map[Channel]*recordingLog)}
}

func (s *recordingSink) Open(ch Channel) Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &recordingLog{}
	s.logs[ch] = l
	s.opened = append(s.opened, ch)
	return l
}

func (s *recordingSink) Release(ch Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, ch)
}

func (s *recordingSink) entries(ch Channel) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[ch]
	if !ok {
		return nil
	}
	return l.entries
}

type recordingLog struct {
	entries []Entry
}

func (l *recordingLog) Append(e Entry) {
	l.entries = append(l.entries, e)
}

func newTestRouter(self string) (*Router, *Registry, *Presence, *recordingSink) {
	sink := newRecordingSink()
	reg := NewRegistry(sink)
	pres := NewPresence(self)
	return NewRouter(self, reg, pres, nil), reg, pres, sink
}
