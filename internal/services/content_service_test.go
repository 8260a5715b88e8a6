package services

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expertgate/internal/models"
	"expertgate/internal/realtime"
)

type fakeContentRepo struct {
	mu       sync.Mutex
	rows     []models.ContentEntry
	err      error
	getErr   error
	calls    int
	getCalls int
	// onList runs after the snapshot is taken, before List returns.
	onList func()
}

func (f *fakeContentRepo) List(context.Context) ([]models.ContentEntry, error) {
	f.mu.Lock()
	f.calls++
	snapshot := append([]models.ContentEntry(nil), f.rows...)
	err, onList := f.err, f.onList
	f.mu.Unlock()

	if onList != nil {
		onList()
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (f *fakeContentRepo) Get(_ context.Context, key string) (*models.ContentEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, r := range f.rows {
		if r.Key == key {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeContentRepo) setRows(rows ...models.ContentEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

func TestContentService_LazyLoadOnce(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "hero.title", Value: "Talk to experts"}}}
	svc := NewContentService(repo)
	assert.Equal(t, 0, repo.calls)

	v, err := svc.Get(context.Background(), "hero.title")
	require.NoError(t, err)
	assert.Equal(t, "Talk to experts", v)

	_, err = svc.Get(context.Background(), "hero.title")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestContentService_MissingKey(t *testing.T) {
	svc := NewContentService(&fakeContentRepo{})
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestContentService_LoadErrorIsRetried(t *testing.T) {
	repo := &fakeContentRepo{err: errors.New("db down")}
	svc := NewContentService(repo)

	_, err := svc.All(context.Background())
	require.Error(t, err)

	repo.err = nil
	repo.rows = []models.ContentEntry{{Key: "a", Value: "1"}}
	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 2, repo.calls)
}

func TestContentService_CancelledContext(t *testing.T) {
	repo := &fakeContentRepo{}
	svc := NewContentService(repo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, repo.calls)
}

func TestContentService_EventsRefetchAfterLoad(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}}
	svc := NewContentService(repo)
	_, err := svc.All(context.Background())
	require.NoError(t, err)

	repo.setRows(models.ContentEntry{Key: "a", Value: "one"}, models.ContentEntry{Key: "c", Value: "3"})
	svc.HandleEvent(realtime.Event{Op: realtime.OpUpsert, Key: "c"})
	svc.HandleEvent(realtime.Event{Op: realtime.OpUpsert, Key: "a"})
	svc.HandleEvent(realtime.Event{Op: realtime.OpDelete, Key: "b"})

	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.ContentEntry{{Key: "a", Value: "one"}, {Key: "c", Value: "3"}}, all)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 2, repo.getCalls)
}

func TestContentService_LargeValueIsRefetched(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "terms", Value: "short"}}}
	svc := NewContentService(repo)
	_, err := svc.Get(context.Background(), "terms")
	require.NoError(t, err)

	long := strings.Repeat("x", 20000)
	repo.setRows(models.ContentEntry{Key: "terms", Value: long})
	svc.HandleEvent(realtime.Event{Op: realtime.OpUpsert, Key: "terms"})

	v, err := svc.Get(context.Background(), "terms")
	require.NoError(t, err)
	assert.Equal(t, long, v)
}

func TestContentService_UpsertForVanishedRowDropsKey(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "a", Value: "1"}}}
	svc := NewContentService(repo)
	_, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)

	repo.setRows()
	svc.HandleEvent(realtime.Event{Op: realtime.OpUpsert, Key: "a"})

	_, err = svc.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestContentService_RefetchErrorForcesReload(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "a", Value: "1"}}}
	svc := NewContentService(repo)
	_, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)

	repo.setRows(models.ContentEntry{Key: "a", Value: "2"})
	repo.getErr = errors.New("conn reset")
	svc.HandleEvent(realtime.Event{Op: realtime.OpUpsert, Key: "a"})

	v, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	assert.Equal(t, 2, repo.calls)
}

func TestContentService_EventsBeforeLoadAreIgnored(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "a", Value: "db"}}}
	svc := NewContentService(repo)

	svc.HandleEvent(realtime.Event{Op: realtime.OpUpsert, Key: "a"})

	v, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "db", v)
	assert.Equal(t, 0, repo.getCalls)
}

func TestContentService_EventDuringLoadIsRefetched(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "a", Value: "old"}, {Key: "b", Value: "gone soon"}}}
	svc := NewContentService(repo)
	repo.onList = func() {
		repo.setRows(models.ContentEntry{Key: "a", Value: "new"})
		svc.HandleEvent(realtime.Event{Op: realtime.OpUpsert, Key: "a"})
		svc.HandleEvent(realtime.Event{Op: realtime.OpDelete, Key: "b"})
	}

	v, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	_, err = svc.Get(context.Background(), "b")
	assert.ErrorIs(t, err, ErrContentNotFound)
	assert.Equal(t, 1, repo.calls)
}

func TestContentService_ResetForcesReload(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "a", Value: "1"}}}
	svc := NewContentService(repo)
	_, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)

	repo.setRows(models.ContentEntry{Key: "a", Value: "2"})
	svc.HandleEvent(realtime.Event{Op: realtime.OpReset})

	v, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	assert.Equal(t, 2, repo.calls)
}

func TestContentService_ResetDuringLoadDoesNotPinSnapshot(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "a", Value: "1"}}}
	svc := NewContentService(repo)
	repo.onList = func() {
		repo.mu.Lock()
		repo.onList = nil
		repo.rows = []models.ContentEntry{{Key: "a", Value: "2"}}
		repo.mu.Unlock()
		svc.HandleEvent(realtime.Event{Op: realtime.OpReset})
	}

	v, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	_, err = svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestContentService_ResetsNeverHideExistingKey(t *testing.T) {
	repo := &fakeContentRepo{rows: []models.ContentEntry{{Key: "a", Value: "1"}}}
	svc := NewContentService(repo)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			svc.HandleEvent(realtime.Event{Op: realtime.OpReset})
			runtime.Gosched()
		}
	}()

	for {
		v, err := svc.Get(context.Background(), "a")
		require.NoError(t, err)
		require.Equal(t, "1", v)
		select {
		case <-done:
			return
		default:
		}
	}
}
