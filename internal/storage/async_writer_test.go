package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRepo задерживает Save, пока тест не откроет gate
type blockingRepo struct {
	*MemoryCheckpointRepo
	gate    chan struct{}
	started chan string
	mu      sync.Mutex
	saves   int
	fail    error
}

func newBlockingRepo() *blockingRepo {
	return &blockingRepo{
		MemoryCheckpointRepo: NewMemoryCheckpointRepo(),
		gate:                 make(chan struct{}),
		started:              make(chan string, 16),
	}
}

func (r *blockingRepo) Save(ctx context.Context, playerID string, rec Record) error {
	r.started <- playerID
	<-r.gate
	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	return r.MemoryCheckpointRepo.Save(ctx, playerID, rec)
}

func (r *blockingRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func at(z float64) Record {
	return Record{CheckpointPosition: vec.Vec3Float{Y: 11, Z: z}}
}

func TestAsyncWriter_EnqueueDoesNotBlock(t *testing.T) {
	repo := newBlockingRepo()
	w := NewAsyncWriter(repo, AsyncOptions{})

	w.Enqueue("alice", at(8))
	<-repo.started // запись ушла в бэкенд и зависла

	// Очередь принимает новые записи, пока бэкенд занят
	w.Enqueue("alice", at(16))
	w.Enqueue("bob", at(8))

	// Чтение видит последнее значение, ещё не записанное
	got, found, err := w.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, at(16), got)

	close(repo.gate)
	w.Flush()
	require.NoError(t, w.Close())

	got, found, err = repo.MemoryCheckpointRepo.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, at(16), got, "в бэкенде последнее значение")

	_, found, _ = repo.MemoryCheckpointRepo.Load(context.Background(), "bob")
	assert.True(t, found)
	assert.Equal(t, 0, w.Pending())
}

func TestAsyncWriter_Coalesces(t *testing.T) {
	repo := newBlockingRepo()
	w := NewAsyncWriter(repo, AsyncOptions{})

	w.Enqueue("warmup", at(0))
	<-repo.started

	for z := 1; z <= 10; z++ {
		w.Enqueue("alice", at(float64(z)))
	}

	close(repo.gate)
	w.Flush()
	require.NoError(t, w.Close())

	assert.Equal(t, 2, repo.saveCount(), "десять записей одного игрока сливаются в одну")
	got, _, _ := repo.MemoryCheckpointRepo.Load(context.Background(), "alice")
	assert.Equal(t, at(10), got)
}

func TestAsyncWriter_FailureReported(t *testing.T) {
	repo := newBlockingRepo()
	repo.fail = errors.New("disk full")
	close(repo.gate)

	var mu sync.Mutex
	results := make(map[string]error)
	w := NewAsyncWriter(repo, AsyncOptions{OnResult: func(playerID string, err error) {
		mu.Lock()
		results[playerID] = err
		mu.Unlock()
	}})

	w.Enqueue("alice", at(8))
	w.Flush()
	require.NoError(t, w.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.EqualError(t, results["alice"], "disk full")
}

func TestAsyncWriter_Delete(t *testing.T) {
	repo := NewMemoryCheckpointRepo()
	w := NewAsyncWriter(repo, AsyncOptions{})
	defer w.Close()

	ctx := context.Background()
	w.Enqueue("alice", at(8))
	w.Flush()

	w.Enqueue("alice", at(16))
	require.NoError(t, w.Delete(ctx, "alice"))
	w.Flush()

	_, found, err := w.Load(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found, "удаление отменяет ожидающую запись")
}

func TestAsyncWriter_CloseDrainsAndRejects(t *testing.T) {
	repo := NewMemoryCheckpointRepo()
	w := NewAsyncWriter(repo, AsyncOptions{})

	w.Enqueue("alice", at(8))
	require.NoError(t, w.Close())
	assert.Equal(t, 1, repo.Count(), "Close сбрасывает очередь")

	w.Enqueue("bob", at(8))
	assert.Equal(t, 1, repo.Count(), "после Close записи отбрасываются")
	assert.NoError(t, w.Close(), "повторный Close безопасен")
}
