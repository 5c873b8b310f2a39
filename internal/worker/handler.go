package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hobbyhub/internal/model"
	"hobbyhub/internal/queue"
)

// CounterReconciler recounts a post's likes and repairs its stored counter.
// Satisfied by service.LikeService.
type CounterReconciler interface {
	Reconcile(ctx context.Context, postID int64) (model.Reconciliation, error)
}

// Throttle limits how often a post is recounted. Satisfied by cache.ReconcileThrottle.
type Throttle interface {
	Acquire(ctx context.Context, postID int64) (bool, error)
}

// Handler processes like events from the queue.
type Handler struct {
	reconciler CounterReconciler
	throttle   Throttle // nil recounts on every toggle
}

// NewHandler creates a new event handler.
func NewHandler(reconciler CounterReconciler, throttle Throttle) *Handler {
	return &Handler{
		reconciler: reconciler,
		throttle:   throttle,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.LikeEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventLikeToggled:
		err = h.handleLikeToggled(ctx, event)
	case queue.EventLikeReconcile:
		err = h.reconcile(ctx, event.PostID)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s post=%d duration=%v err=%v",
			event.Type, event.PostID, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s post=%d duration=%v", event.Type, event.PostID, time.Since(startTime))
	return nil
}

// handleLikeToggled double-checks the counter of a post that was just toggled.
func (h *Handler) handleLikeToggled(ctx context.Context, event queue.LikeEvent) error {
	if h.throttle != nil {
		ok, err := h.throttle.Acquire(ctx, event.PostID)
		if err != nil {
			// Recounting is idempotent, so a broken throttle only costs a query.
			log.Printf("[Worker] LikeToggled: throttle unavailable for post=%d: %v", event.PostID, err)
		} else if !ok {
			return nil
		}
	}
	return h.reconcile(ctx, event.PostID)
}

func (h *Handler) reconcile(ctx context.Context, postID int64) error {
	rec, err := h.reconciler.Reconcile(ctx, postID)
	if errors.Is(err, model.ErrPostNotFound) {
		log.Printf("[Worker] Reconcile: post=%d no longer exists", postID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile post %d: %w", postID, err)
	}

	if rec.Drifted() {
		log.Printf("[Worker] Reconcile DRIFT: post=%d stored=%d actual=%d", postID, rec.Before, rec.After)
	}
	return nil
}
