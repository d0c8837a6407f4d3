package storage

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/parkour-course/internal/logging"
)

// AsyncOptions настройки фоновой записи
type AsyncOptions struct {
	Timeout  time.Duration                    // Таймаут одной записи в бэкенд
	OnResult func(playerID string, err error) // Вызывается после каждой записи (метрики)
}

// AsyncWriter фоновая запись чекпоинтов без ожидания со стороны игрового цикла.
// Несколько записей одного игрока до сброса сливаются в последнюю.
// Load видит ещё не записанные значения, поэтому повторный вход сразу после
// выхода получает свежий прогресс.
type AsyncWriter struct {
	repo CheckpointRepo
	opts AsyncOptions

	mu       sync.Mutex
	idle     *sync.Cond
	pending  map[string]Record
	inflight map[string]Record
	closed   bool

	writeMu sync.Mutex // держится воркером на время записи пачки
	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewAsyncWriter запускает фоновый воркер поверх repo
func NewAsyncWriter(repo CheckpointRepo, opts AsyncOptions) *AsyncWriter {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}

	w := &AsyncWriter{
		repo:     repo,
		opts:     opts,
		pending:  make(map[string]Record),
		inflight: make(map[string]Record),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	w.idle = sync.NewCond(&w.mu)

	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue ставит запись в очередь и сразу возвращает управление.
// После Close записи отбрасываются.
func (w *AsyncWriter) Enqueue(playerID string, rec Record) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		logging.GetStorageLogger().Warn("⚠️ Checkpoint write for %s dropped: writer closed", playerID)
		return
	}
	w.pending[playerID] = rec
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Load возвращает запись с учётом ещё не записанных значений
func (w *AsyncWriter) Load(ctx context.Context, playerID string) (Record, bool, error) {
	w.mu.Lock()
	if rec, ok := w.pending[playerID]; ok {
		w.mu.Unlock()
		return rec, true, nil
	}
	if rec, ok := w.inflight[playerID]; ok {
		w.mu.Unlock()
		return rec, true, nil
	}
	w.mu.Unlock()

	return w.repo.Load(ctx, playerID)
}

// Delete отменяет ожидающую запись и удаляет запись в бэкенде.
// Ждёт завершения текущей пачки, чтобы она не вернула удалённую запись.
func (w *AsyncWriter) Delete(ctx context.Context, playerID string) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	delete(w.pending, playerID)
	w.mu.Unlock()

	return w.repo.Delete(ctx, playerID)
}

// Pending количество записей, ожидающих сброса
func (w *AsyncWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending) + len(w.inflight)
}

// Flush блокируется, пока очередь не опустеет
func (w *AsyncWriter) Flush() {
	w.mu.Lock()
	for len(w.pending) > 0 || len(w.inflight) > 0 {
		select {
		case w.wake <- struct{}{}:
		default:
		}
		w.idle.Wait()
	}
	w.mu.Unlock()
}

// Close сбрасывает очередь и останавливает воркер. Репозиторий не закрывается.
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	return nil
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.wake:
			w.flushOnce()
		case <-w.done:
			// Последний сброс того, что успели поставить до Close
			for w.flushOnce() {
			}
			return
		}
	}
}

// flushOnce записывает текущую пачку; false если писать было нечего
func (w *AsyncWriter) flushOnce() bool {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	if len(w.pending) == 0 {
		w.idle.Broadcast()
		w.mu.Unlock()
		return false
	}
	batch := w.pending
	w.pending = make(map[string]Record)
	w.inflight = batch
	w.mu.Unlock()

	for playerID, rec := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.Timeout)
		err := w.repo.Save(ctx, playerID, rec)
		cancel()

		if err != nil {
			logging.GetStorageLogger().Error("❌ Failed to save checkpoint for %s: %v", playerID, err)
		}
		if w.opts.OnResult != nil {
			w.opts.OnResult(playerID, err)
		}
	}

	w.mu.Lock()
	w.inflight = make(map[string]Record)
	if len(w.pending) == 0 {
		w.idle.Broadcast()
	}
	w.mu.Unlock()
	return true
}
