package msgworker

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	coreconfig "github.com/AzielCF/az-ravena/core/config"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/sirupsen/logrus"
)

var (
	globalPool     *MessageWorkerPool
	globalPoolOnce sync.Once
	globalCancel   context.CancelFunc
)

// GetGlobalPool returns the process-wide pipeline pool, starting it on first use.
func GetGlobalPool() *MessageWorkerPool {
	globalPoolOnce.Do(func() {
		var ctx context.Context
		ctx, globalCancel = context.WithCancel(context.Background())

		size, queue, timeout := 6, 250, 3*time.Minute
		if cfg := coreconfig.Global; cfg != nil {
			if cfg.WorkerPool.Size > 0 {
				size = cfg.WorkerPool.Size
			}
			if cfg.WorkerPool.QueueSize > 0 {
				queue = cfg.WorkerPool.QueueSize
			}
			timeout = cfg.WorkerPool.JobTimeout
		}

		globalPool = NewMessageWorkerPool(size, queue)
		globalPool.SetJobTimeout(timeout)
		globalPool.OnWorkerEnd = recordFailure
		globalPool.Start(ctx)
	})
	return globalPool
}

// recordFailure keeps failed jobs visible on the monitor endpoint.
func recordFailure(workerID int, chatKey string, err error) {
	if err == nil {
		return
	}
	botID, chatID, _ := strings.Cut(chatKey, "|")
	botmonitor.Record(botmonitor.Event{
		BotID:    botID,
		ChatID:   chatID,
		Stage:    botmonitor.StageJob,
		Status:   botmonitor.StatusError,
		Error:    err.Error(),
		Metadata: map[string]string{"worker": strconv.Itoa(workerID)},
	})
}

// StopGlobalPool drains and stops the singleton pool.
func StopGlobalPool() {
	if globalPool == nil {
		return
	}
	globalPool.Stop()
	if globalCancel != nil {
		globalCancel()
	}
	logrus.Info("[MSG_WORKER_POOL] Global instance stopped")
}
