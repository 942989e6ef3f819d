package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Transcript adapts a TranscriptStore to core.Sink so every routed entry is recorded.
type Transcript struct {
	store   TranscriptStore
	timeout time.Duration
	log     *zerolog.Logger
}

// NewTranscript wraps st. Write failures are logged, never returned to the router.
func NewTranscript(st TranscriptStore, logger *zerolog.Logger) *Transcript {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Transcript{store: st, timeout: 2 * time.Second, log: logger}
}

// Open implements core.Sink.
func (t *Transcript) Open(ch core.Channel) core.Log {
	return transcriptLog{t: t, channel: ch.String()}
}

// Release implements core.Sink. Records of a closed channel are kept.
func (t *Transcript) Release(core.Channel) {}

// History returns up to limit recent entries of ch, oldest first.
func (t *Transcript) History(ctx context.Context, ch core.Channel, limit int) ([]core.Entry, error) {
	recs, err := t.store.ListRecords(ctx, ch.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", ch, err)
	}
	out := make([]core.Entry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, EntryFromRecord(rec))
	}
	return out, nil
}

type transcriptLog struct {
	t       *Transcript
	channel string
}

func (l transcriptLog) Append(e core.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), l.t.timeout)
	defer cancel()
	rec := RecordFromEntry(l.channel, e)
	if err := l.t.store.SaveRecord(ctx, rec); err != nil {
		l.t.log.Warn().Err(err).Str("channel", l.channel).Str("entry", e.ID).Msg("record transcript entry")
	}
}

// RecordFromEntry maps a routed entry to its stored form.
func RecordFromEntry(channel string, e core.Entry) *Record {
	return &Record{
		ID:        e.ID,
		Channel:   channel,
		Kind:      e.Kind.String(),
		From:      e.From,
		To:        e.To,
		Content:   e.Content,
		Self:      e.Self,
		CreatedAt: e.At,
	}
}

// EntryFromRecord maps a stored record back to an entry. Unread is not stored.
func EntryFromRecord(rec *Record) core.Entry {
	return core.Entry{
		ID:      rec.ID,
		Kind:    core.ParseEntryKind(rec.Kind),
		From:    rec.From,
		To:      rec.To,
		Content: rec.Content,
		Self:    rec.Self,
		At:      rec.CreatedAt,
	}
}
