package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gchung00/daily-qt/internal/archive"
)

// fakeArchive keeps entries in memory with the archive.Store put semantics.
type fakeArchive struct {
	mu      sync.Mutex
	entries map[string]string
	saveErr error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{entries: make(map[string]string)}
}

func (a *fakeArchive) Save(_ context.Context, date, text string, force bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return a.saveErr
	}
	if _, ok := a.entries[date]; ok && !force {
		return archive.ErrConflict
	}
	a.entries[date] = text
	return nil
}

func (a *fakeArchive) Raw(_ context.Context, date string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	text, ok := a.entries[date]
	if !ok {
		return "", archive.ErrNotFound
	}
	return text, nil
}

// fakeDrafts keeps drafts in memory.
type fakeDrafts struct {
	mu     sync.Mutex
	drafts map[int64]string
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: make(map[int64]string)}
}

func (d *fakeDrafts) Get(_ context.Context, id int64) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.drafts[id]
	return text, ok, nil
}

func (d *fakeDrafts) Put(_ context.Context, id int64, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drafts[id] = text
	return nil
}

func (d *fakeDrafts) Delete(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.drafts, id)
	return nil
}

// MockDraftStore is a testify mock of DraftStore.
type MockDraftStore struct {
	mock.Mock
}

func (m *MockDraftStore) Get(ctx context.Context, id int64) (string, bool, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockDraftStore) Put(ctx context.Context, id int64, text string) error {
	return m.Called(ctx, id, text).Error(0)
}

func (m *MockDraftStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

const submitter = int64(4242)

func newTestMerger(a Archive, d DraftStore) *Merger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewMerger(a, d, Options{
		Now: func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) },
	}, logger)
}

func send(t *testing.T, m *Merger, text string) Reply {
	t.Helper()
	reply, err := m.Handle(context.Background(), Message{SubmitterID: submitter, MessageID: 1, Text: text})
	require.NoError(t, err)
	return reply
}

func TestMerger_DraftThenDate(t *testing.T) {
	store := newFakeArchive()
	drafts := newFakeDrafts()
	m := newTestMerger(store, drafts)

	reply := send(t, m, "part one")
	assert.Equal(t, Drafted, reply.Outcome)
	assert.Equal(t, "part one", drafts.drafts[submitter])

	reply = send(t, m, "part two")
	assert.Equal(t, Drafted, reply.Outcome)
	assert.Equal(t, "part one\n\npart two", drafts.drafts[submitter])

	reply = send(t, m, "2026-03-01")
	assert.Equal(t, DraftSaved, reply.Outcome)
	assert.Equal(t, "2026-03-01", reply.Date)
	assert.Contains(t, reply.Text, "2026-03-01")
	assert.Equal(t, "part one\n\npart two", store.entries["2026-03-01"])
	assert.NotContains(t, drafts.drafts, submitter)
}

func TestMerger_AppendOnConflict(t *testing.T) {
	store := newFakeArchive()
	store.entries["2026-03-01"] = "existing sermon"
	drafts := newFakeDrafts()
	m := newTestMerger(store, drafts)

	send(t, m, "new part")
	reply := send(t, m, "2026-03-01")

	assert.Equal(t, Appended, reply.Outcome)
	assert.Equal(t, "existing sermon\n\nnew part", store.entries["2026-03-01"])
	assert.NotContains(t, drafts.drafts, submitter)
}

func TestMerger_CompleteMessageSavedDirectly(t *testing.T) {
	store := newFakeArchive()
	drafts := newFakeDrafts()
	m := newTestMerger(store, drafts)

	reply := send(t, m, "롯이 아브람을 떠난 후에 창13:10-18\n2026. 2. 8 주일 낮\n본문")

	assert.Equal(t, Saved, reply.Outcome)
	assert.Equal(t, "2026-02-08", reply.Date)
	assert.Contains(t, reply.Text, "창13:10-18")
	assert.Contains(t, store.entries, "2026-02-08")
}

func TestMerger_LongDatedMessageIgnoresDraft(t *testing.T) {
	store := newFakeArchive()
	drafts := newFakeDrafts()
	drafts.drafts[submitter] = "pending draft"
	m := newTestMerger(store, drafts)

	long := "2026-03-01\n" + stringOfRunes('가', 120)
	reply := send(t, m, long)

	assert.Equal(t, Saved, reply.Outcome)
	assert.Equal(t, long, store.entries["2026-03-01"])
	assert.Equal(t, "pending draft", drafts.drafts[submitter])
}

func TestMerger_ConflictWithoutDraftDoesNotMerge(t *testing.T) {
	store := newFakeArchive()
	store.entries["2026-03-01"] = "existing sermon"
	m := newTestMerger(store, newFakeDrafts())

	reply := send(t, m, "2026-03-01 새 설교")

	assert.Equal(t, Conflict, reply.Outcome)
	assert.Equal(t, "❌ 저장 실패: 2026-03-01에 이미 설교가 존재합니다.", reply.Text)
	assert.Equal(t, "existing sermon", store.entries["2026-03-01"])
}

func TestMerger_ShortDatedMessageWithoutDraft(t *testing.T) {
	store := newFakeArchive()
	m := newTestMerger(store, newFakeDrafts())

	reply := send(t, m, "12 Feb")

	assert.Equal(t, Saved, reply.Outcome)
	assert.Equal(t, "12 Feb", store.entries["2026-02-12"])
}

func TestMerger_Commands(t *testing.T) {
	tests := []struct {
		text string
		want Outcome
	}{
		{"/cancel", Cancelled},
		{"cancel", Cancelled},
		{" CANCEL ", Cancelled},
		{"/cancel@DailyQTBot", Cancelled},
		{"/start", Help},
		{"/help", Help},
		{"/help@DailyQTBot", Help},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			drafts := newFakeDrafts()
			drafts.drafts[submitter] = "pending"
			m := newTestMerger(newFakeArchive(), drafts)

			reply := send(t, m, tt.text)
			assert.Equal(t, tt.want, reply.Outcome)
			assert.NotEmpty(t, reply.Text)

			if tt.want == Cancelled {
				assert.NotContains(t, drafts.drafts, submitter)
			} else {
				assert.Equal(t, "pending", drafts.drafts[submitter])
			}
		})
	}
}

func TestMerger_SaveFailureKeepsDraft(t *testing.T) {
	store := newFakeArchive()
	store.saveErr = errors.New("timeout")
	drafts := newFakeDrafts()
	drafts.drafts[submitter] = "pending"
	m := newTestMerger(store, drafts)

	reply, err := m.Handle(context.Background(), Message{SubmitterID: submitter, Text: "2026-03-01"})

	require.Error(t, err)
	assert.Equal(t, Failed, reply.Outcome)
	assert.Equal(t, failedText, reply.Text)
	assert.Equal(t, "pending", drafts.drafts[submitter])
}

func TestMerger_DraftStoreFailure(t *testing.T) {
	drafts := new(MockDraftStore)
	drafts.On("Get", mock.Anything, submitter).Return("", false, errors.New("connection refused"))
	m := newTestMerger(newFakeArchive(), drafts)

	reply, err := m.Handle(context.Background(), Message{SubmitterID: submitter, Text: "part one"})

	require.Error(t, err)
	assert.Equal(t, Failed, reply.Outcome)
	drafts.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestMerger_StoreCallsHaveDeadline(t *testing.T) {
	drafts := new(MockDraftStore)
	drafts.On("Get", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), submitter).Return("", false, nil)
	drafts.On("Put", mock.Anything, submitter, "part one").Return(nil)
	m := newTestMerger(newFakeArchive(), drafts)

	reply := send(t, m, "part one")

	assert.Equal(t, Drafted, reply.Outcome)
	drafts.AssertExpectations(t)
}

func TestMerger_ConcurrentDraftsFromOneSubmitter(t *testing.T) {
	drafts := newFakeDrafts()
	m := newTestMerger(newFakeArchive(), drafts)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Handle(context.Background(), Message{SubmitterID: submitter, Text: "x"})
		}()
	}
	wg.Wait()

	// every part survives when appends are serialized
	assert.Equal(t, 20*1+19*2, len(drafts.drafts[submitter]))
	assert.Equal(t, 0, m.locks.size())
}

func stringOfRunes(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}
