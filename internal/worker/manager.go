package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"hobbyhub/internal/queue"
)

const (
	DefaultWorkerCount   = 2
	DefaultBatchSize     = 10
	DefaultBlockTimeout  = 5 * time.Second
	DefaultClaimIdle     = time.Minute
	DefaultClaimInterval = 30 * time.Second

	// maxPendingRounds caps the start-up drain so an entry whose ack keeps
	// failing cannot pin a worker there.
	maxPendingRounds = 100

	readErrorBackoff = time.Second
)

// EventHandler processes one like event. Satisfied by *Handler.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.LikeEvent) error
}

// ManagerConfig tunes the worker pool. Zero fields take the defaults.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration // XREADGROUP BLOCK

	// Entries another consumer left unacked for ClaimIdle are taken over by
	// worker 1, checked every ClaimInterval.
	ClaimIdle     time.Duration
	ClaimInterval time.Duration
}

// Manager runs a pool of goroutines that consume the like stream as members
// of one consumer group.
type Manager struct {
	consumer queue.Consumer
	handler  EventHandler
	cfg      ManagerConfig
	hostname string

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = DefaultClaimIdle
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = DefaultClaimInterval
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}

	return &Manager{consumer: consumer, handler: handler, cfg: cfg, hostname: host}
}

// Start creates the consumer group and launches the workers. It returns once
// they are running; call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for id := 1; id <= m.cfg.WorkerCount; id++ {
		m.wg.Add(1)
		go m.run(ctx, id)
	}

	log.Printf("[Manager] Started %d workers", m.cfg.WorkerCount)
	return nil
}

// Stop cancels the workers and waits for in-flight batches to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	log.Printf("[Manager] All workers stopped")
}

// consumerName is stable across restarts of the same host so a restarted
// worker gets its own unacked entries back.
func (m *Manager) consumerName(workerID int) string {
	return fmt.Sprintf("%s-worker-%d", m.hostname, workerID)
}

func (m *Manager) run(ctx context.Context, workerID int) {
	defer m.wg.Done()

	name := m.consumerName(workerID)
	m.drainPending(ctx, workerID, name)

	nextClaim := time.Now().Add(m.cfg.ClaimInterval)
	for ctx.Err() == nil {
		if workerID == 1 && time.Now().After(nextClaim) {
			m.claimIdle(ctx, workerID, name)
			nextClaim = time.Now().Add(m.cfg.ClaimInterval)
		}

		messages, err := m.consumer.Read(ctx, name, m.cfg.BatchSize, m.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[Worker-%d] Read failed: %v", workerID, err)
			select {
			case <-ctx.Done():
			case <-time.After(readErrorBackoff):
			}
			continue
		}
		m.process(ctx, workerID, messages)
	}

	log.Printf("[Worker-%d] Stopped", workerID)
}

// drainPending replays entries this consumer received before a crash or restart.
func (m *Manager) drainPending(ctx context.Context, workerID int, name string) {
	for round := 0; round < maxPendingRounds && ctx.Err() == nil; round++ {
		messages, err := m.consumer.ReadPending(ctx, name, m.cfg.BatchSize)
		if err != nil {
			log.Printf("[Worker-%d] Reading pending entries failed: %v", workerID, err)
			return
		}
		if len(messages) == 0 {
			return
		}
		log.Printf("[Worker-%d] Replaying %d pending entries", workerID, len(messages))
		m.process(ctx, workerID, messages)
	}
}

// claimIdle takes over entries stuck with consumers that no longer exist,
// e.g. a replaced host whose consumer name will never come back.
func (m *Manager) claimIdle(ctx context.Context, workerID int, name string) {
	messages, err := m.consumer.Claim(ctx, name, m.cfg.ClaimIdle, m.cfg.BatchSize)
	if err != nil {
		log.Printf("[Worker-%d] Claim failed: %v", workerID, err)
		return
	}
	m.process(ctx, workerID, messages)
}

// process handles each message and acks it whatever the outcome: a failed
// reconcile is repaired by the next toggle or by hobbyctl reconcile-likes.
func (m *Manager) process(ctx context.Context, workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Printf("[Worker-%d] msgID=%s type=%s post=%d: %v",
				workerID, msg.ID, msg.Event.Type, msg.Event.PostID, err)
		}
		if err := m.consumer.Ack(ctx, msg.ID); err != nil {
			log.Printf("[Worker-%d] Ack msgID=%s failed: %v", workerID, msg.ID, err)
		}
	}
}
