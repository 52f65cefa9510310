package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gchung00/daily-qt/internal/archive"
	"github.com/gchung00/daily-qt/internal/sermon"
)

// draftBoundary separates parts of a draft and an appended sermon.
const draftBoundary = "\n\n"

// Outcome is what one message did to the submitter's state.
type Outcome int

const (
	Failed Outcome = iota
	Cancelled
	Help
	Saved
	DraftSaved
	Appended
	Conflict
	Drafted
)

func (o Outcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case Help:
		return "help"
	case Saved:
		return "saved"
	case DraftSaved:
		return "draft_saved"
	case Appended:
		return "appended"
	case Conflict:
		return "conflict"
	case Drafted:
		return "drafted"
	default:
		return "failed"
	}
}

// Message is one inbound chat message.
type Message struct {
	SubmitterID int64
	MessageID   int
	Text        string
}

// Reply tells the transport what to answer.
type Reply struct {
	Outcome Outcome
	Text    string
	Date    string
}

// Archive is the part of archive.Service the merger needs.
type Archive interface {
	Save(ctx context.Context, date, text string, force bool) error
	Raw(ctx context.Context, date string) (string, error)
}

// DraftStore keeps at most one pending draft per submitter.
type DraftStore interface {
	Get(ctx context.Context, submitterID int64) (string, bool, error)
	Put(ctx context.Context, submitterID int64, text string) error
	Delete(ctx context.Context, submitterID int64) error
}

// Options tune the merger. Zero values pick defaults.
type Options struct {
	// ShortMessageRunes is the length below which a dated message only
	// supplies the date for a pending draft.
	ShortMessageRunes int
	// DateScanLines is how many leading lines are searched for a date.
	DateScanLines int
	// StoreTimeout bounds every archive and draft store call.
	StoreTimeout time.Duration
	// Location decides the current year for dates written without one.
	Location *time.Location
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ShortMessageRunes <= 0 {
		o.ShortMessageRunes = 100
	}
	if o.DateScanLines <= 0 {
		o.DateScanLines = 5
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 10 * time.Second
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Merger runs the draft workflow. Messages from one submitter are handled
// one at a time; different submitters proceed in parallel.
type Merger struct {
	archive Archive
	drafts  DraftStore
	opts    Options
	locks   *keyLock
	logger  *slog.Logger
}

func NewMerger(archive Archive, drafts DraftStore, opts Options, logger *slog.Logger) *Merger {
	return &Merger{
		archive: archive,
		drafts:  drafts,
		opts:    opts.withDefaults(),
		locks:   newKeyLock(),
		logger:  logger,
	}
}

// Handle processes one message. Storage failures come back as a Failed reply
// together with the error; the draft is left as it was.
func (m *Merger) Handle(ctx context.Context, msg Message) (Reply, error) {
	text := strings.TrimSpace(msg.Text)

	switch {
	case IsCancel(text):
		return m.cancel(ctx, msg)
	case IsCommand(text, "/start"), IsCommand(text, "/help"):
		return Reply{Outcome: Help, Text: helpText}, nil
	}

	unlock := m.locks.Lock(msg.SubmitterID)
	defer unlock()

	now := m.opts.Now().In(m.opts.Location)
	date, ok := ExtractDate(msg.Text, now, m.opts.DateScanLines)
	if !ok {
		return m.appendDraft(ctx, msg)
	}
	return m.commit(ctx, msg, date)
}

func (m *Merger) cancel(ctx context.Context, msg Message) (Reply, error) {
	unlock := m.locks.Lock(msg.SubmitterID)
	defer unlock()

	err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.drafts.Delete(ctx, msg.SubmitterID)
	})
	if err != nil {
		return m.failed(msg, "", fmt.Errorf("failed to delete draft: %w", err))
	}

	m.logger.Info("draft discarded", "submitter_id", msg.SubmitterID)
	return Reply{Outcome: Cancelled, Text: cancelText}, nil
}

func (m *Merger) appendDraft(ctx context.Context, msg Message) (Reply, error) {
	var existing string
	var found bool
	err := m.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		existing, found, err = m.drafts.Get(ctx, msg.SubmitterID)
		return err
	})
	if err != nil {
		return m.failed(msg, "", fmt.Errorf("failed to read draft: %w", err))
	}

	draft := msg.Text
	if found {
		draft = existing + draftBoundary + msg.Text
	}

	err = m.withTimeout(ctx, func(ctx context.Context) error {
		return m.drafts.Put(ctx, msg.SubmitterID, draft)
	})
	if err != nil {
		return m.failed(msg, "", fmt.Errorf("failed to save draft: %w", err))
	}

	m.logger.Info("draft updated",
		"submitter_id", msg.SubmitterID,
		"message_id", msg.MessageID,
		"runes", utf8.RuneCountInString(draft),
	)
	return Reply{Outcome: Drafted, Text: draftedText}, nil
}

func (m *Merger) commit(ctx context.Context, msg Message, date string) (Reply, error) {
	content := msg.Text
	usingDraft := false

	if utf8.RuneCountInString(msg.Text) < m.opts.ShortMessageRunes {
		var draft string
		var found bool
		err := m.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			draft, found, err = m.drafts.Get(ctx, msg.SubmitterID)
			return err
		})
		if err != nil {
			return m.failed(msg, date, fmt.Errorf("failed to read draft: %w", err))
		}
		if found {
			content = draft
			usingDraft = true
		}
	}

	err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.archive.Save(ctx, date, content, false)
	})
	switch {
	case err == nil:
		if usingDraft {
			m.discardDraft(ctx, msg)
			return m.reply(DraftSaved, date, content, draftSavedFormat), nil
		}
		return m.reply(Saved, date, content, savedFormat), nil

	case errors.Is(err, archive.ErrConflict) && usingDraft:
		return m.appendToEntry(ctx, msg, date, content)

	case errors.Is(err, archive.ErrConflict):
		m.logger.Info("sermon already exists", "submitter_id", msg.SubmitterID, "date", date)
		return Reply{Outcome: Conflict, Text: fmt.Sprintf(conflictFormat, date), Date: date}, nil

	default:
		return m.failed(msg, date, fmt.Errorf("failed to save sermon: %w", err))
	}
}

// appendToEntry merges a completed draft into the entry already stored at
// date. This is the only automatic merge.
func (m *Merger) appendToEntry(ctx context.Context, msg Message, date, draft string) (Reply, error) {
	var existing string
	err := m.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		existing, err = m.archive.Raw(ctx, date)
		return err
	})

	combined := draft
	switch {
	case err == nil:
		combined = existing + draftBoundary + draft
	case errors.Is(err, archive.ErrNotFound):
		// removed after the conflict; the draft alone fills the slot
	default:
		return m.failed(msg, date, fmt.Errorf("failed to read existing sermon: %w", err))
	}

	err = m.withTimeout(ctx, func(ctx context.Context) error {
		return m.archive.Save(ctx, date, combined, true)
	})
	if err != nil {
		return m.failed(msg, date, fmt.Errorf("failed to append to sermon: %w", err))
	}

	m.discardDraft(ctx, msg)
	m.logger.Info("draft appended to existing sermon", "submitter_id", msg.SubmitterID, "date", date)
	return m.reply(Appended, date, combined, appendedFormat), nil
}

// discardDraft deletes a consumed draft. The sermon is already stored, so a
// failure here is only logged.
func (m *Merger) discardDraft(ctx context.Context, msg Message) {
	err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.drafts.Delete(ctx, msg.SubmitterID)
	})
	if err != nil {
		m.logger.Error("failed to delete consumed draft", "submitter_id", msg.SubmitterID, "error", err)
	}
}

func (m *Merger) reply(outcome Outcome, date, content, format string) Reply {
	m.logger.Info("sermon stored", "outcome", outcome.String(), "date", date)
	text := fmt.Sprintf(format, date) + "\n\n" + sermon.Summary(sermon.Parse(content))
	return Reply{Outcome: outcome, Text: text, Date: date}
}

func (m *Merger) failed(msg Message, date string, err error) (Reply, error) {
	m.logger.Error("failed to handle message",
		"submitter_id", msg.SubmitterID,
		"message_id", msg.MessageID,
		"date", date,
		"error", err,
	)
	return Reply{Outcome: Failed, Text: failedText, Date: date}, err
}

func (m *Merger) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

// IsCommand reports whether text is the bot command cmd, with or without a
// "@botname" suffix.
func IsCommand(text, cmd string) bool {
	text = strings.TrimSpace(text)
	if text == cmd {
		return true
	}
	return strings.HasPrefix(text, cmd+"@") && !strings.ContainsAny(text, " \n")
}

// IsCancel reports whether text asks to discard the draft.
func IsCancel(text string) bool {
	return IsCommand(text, "/cancel") || strings.EqualFold(strings.TrimSpace(text), "cancel")
}
