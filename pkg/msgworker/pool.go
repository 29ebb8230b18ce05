package msgworker

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// MessageJob is one unit of pipeline work. Jobs sharing BotID and ChatID
// always land on the same worker, so a chat is processed in arrival order.
type MessageJob struct {
	BotID  string
	ChatID string
	Kind   string
	// ShardKey replaces BotID|ChatID when picking the worker. Jobs of
	// several bots that touch the same group share it.
	ShardKey string
	Handler  func(ctx context.Context) error
}

func (j MessageJob) key() string {
	return j.BotID + "|" + j.ChatID
}

func (j MessageJob) shardKey() string {
	if j.ShardKey != "" {
		return j.ShardKey
	}
	return j.key()
}

// PoolStats holds live metrics of the pool.
type PoolStats struct {
	NumWorkers      int            `json:"num_workers"`
	QueueSize       int            `json:"queue_size"`
	ActiveWorkers   int            `json:"active_workers"`
	TotalDispatched int64          `json:"total_dispatched"`
	TotalProcessed  int64          `json:"total_processed"`
	TotalDropped    int64          `json:"total_dropped"`
	TotalErrors     int64          `json:"total_errors"`
	Uptime          string         `json:"uptime"`
	WorkerStats     []WorkerStats  `json:"worker_stats"`
	ActiveChats     map[string]int `json:"active_chats"` // botID|chatID -> worker_id
}

type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

type activeChatEntry struct {
	workerID  int
	updatedAt time.Time
}

// MessageWorkerPool runs pipeline jobs on a fixed set of sharded workers.
type MessageWorkerPool struct {
	numWorkers int
	queueSize  int
	jobTimeout time.Duration
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	started    int32
	stopped    int32
	stopCh     chan struct{}

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
	activeChatsMu   sync.Mutex
	activeChats     map[string]activeChatEntry
	startTime       time.Time

	// Optional monitoring hooks.
	OnWorkerStart func(workerID int, chatKey string)
	OnWorkerEnd   func(workerID int, chatKey string, err error)
}

type worker struct {
	id            int
	jobQueue      chan MessageJob
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32
	jobsProcessed int64
	pool          *MessageWorkerPool
}

func NewMessageWorkerPool(numWorkers, queueSize int) *MessageWorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	return &MessageWorkerPool{
		numWorkers:  numWorkers,
		queueSize:   queueSize,
		workers:     make([]*worker, numWorkers),
		activeChats: make(map[string]activeChatEntry),
		stopCh:      make(chan struct{}),
		startTime:   time.Now(),
	}
}

// SetJobTimeout bounds every handler run. Zero disables the bound.
func (p *MessageWorkerPool) SetJobTimeout(d time.Duration) {
	p.jobTimeout = d
}

func (p *MessageWorkerPool) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return
	}

	p.wg.Add(1)
	go p.sweepActiveChats(ctx)

	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan MessageJob, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[MSG_WORKER_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

func (p *MessageWorkerPool) sweepActiveChats(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pruneActiveChats(time.Now())
		}
	}
}

func (p *MessageWorkerPool) pruneActiveChats(now time.Time) {
	p.activeChatsMu.Lock()
	defer p.activeChatsMu.Unlock()
	for k, v := range p.activeChats {
		if now.Sub(v.updatedAt) > 2*time.Second {
			delete(p.activeChats, k)
		}
	}
}

// TryDispatch queues a job without blocking and reports whether it was accepted.
func (p *MessageWorkerPool) TryDispatch(job MessageJob) bool {
	if atomic.LoadInt32(&p.stopped) == 1 || atomic.LoadInt32(&p.started) == 0 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardFor(job.shardKey())
	atomic.AddInt64(&p.totalDispatched, 1)

	chatKey := job.key()
	p.activeChatsMu.Lock()
	p.activeChats[chatKey] = activeChatEntry{workerID: shard, updatedAt: time.Now()}
	p.activeChatsMu.Unlock()

	sent := func() (ok bool) {
		// the queue may be closed concurrently by Stop
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()
	if sent {
		return true
	}

	p.activeChatsMu.Lock()
	delete(p.activeChats, chatKey)
	p.activeChatsMu.Unlock()

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[MSG_WORKER_POOL] Worker %d queue full (or stopped), dropping %s job for %s", shard, job.Kind, chatKey)
	return false
}

func (p *MessageWorkerPool) Dispatch(job MessageJob) {
	_ = p.TryDispatch(job)
}

// Stop closes the queues and waits for queued jobs to finish.
func (p *MessageWorkerPool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		close(p.stopCh)
		logrus.Info("[MSG_WORKER_POOL] Stopping workers...")

		for _, w := range p.workers {
			if w == nil {
				continue
			}
			close(w.jobQueue)
		}
		p.wg.Wait()
		for _, w := range p.workers {
			if w != nil {
				w.cancel()
			}
		}

		logrus.Info("[MSG_WORKER_POOL] All workers stopped")
	})
}

func (p *MessageWorkerPool) shardForChat(botID, chatID string) int {
	return p.shardFor(botID + "|" + chatID)
}

func (p *MessageWorkerPool) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *MessageWorkerPool) GetStats() PoolStats {
	workerStats := make([]WorkerStats, 0, len(p.workers))
	activeWorkers := 0

	for _, w := range p.workers {
		if w == nil {
			continue
		}
		isProcessing := atomic.LoadInt32(&w.isProcessing) == 1
		if isProcessing {
			activeWorkers++
		}
		workerStats = append(workerStats, WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.jobQueue),
			IsProcessing:  isProcessing,
			JobsProcessed: atomic.LoadInt64(&w.jobsProcessed),
		})
	}

	p.pruneActiveChats(time.Now())
	p.activeChatsMu.Lock()
	activeChats := make(map[string]int, len(p.activeChats))
	for k, v := range p.activeChats {
		activeChats[k] = v.workerID
	}
	p.activeChatsMu.Unlock()

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		Uptime:          time.Since(p.startTime).Round(time.Second).String(),
		WorkerStats:     workerStats,
		ActiveChats:     activeChats,
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	logrus.Debugf("[MSG_WORKER_POOL] Worker %d started", w.id)

	for job := range w.jobQueue {
		w.process(job)
	}
	logrus.Debugf("[MSG_WORKER_POOL] Worker %d shutting down", w.id)
}

func (w *worker) process(job MessageJob) {
	chatKey := job.key()
	p := w.pool

	if p.OnWorkerStart != nil {
		p.OnWorkerStart(w.id, chatKey)
	}
	atomic.StoreInt32(&w.isProcessing, 1)

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			atomic.AddInt64(&p.totalErrors, 1)
			logrus.Errorf("[MSG_WORKER_POOL] Worker %d panic for %s: %v", w.id, chatKey, r)
		}
		if p.OnWorkerEnd != nil {
			p.OnWorkerEnd(w.id, chatKey, err)
		}
		atomic.StoreInt32(&w.isProcessing, 0)
		atomic.AddInt64(&w.jobsProcessed, 1)
		atomic.AddInt64(&p.totalProcessed, 1)
	}()

	ctx := w.ctx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	err = job.Handler(ctx)
	if err != nil {
		atomic.AddInt64(&p.totalErrors, 1)
		logrus.WithError(err).Errorf("[MSG_WORKER_POOL] Worker %d %s job failed for %s", w.id, job.Kind, chatKey)
	}
}
