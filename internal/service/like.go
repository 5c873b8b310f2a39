package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"hobbyhub/internal/model"
	"hobbyhub/internal/queue"
	"hobbyhub/internal/repository"
)

const (
	instrumentationName = "hobbyhub/internal/service"

	// maxToggleAttempts bounds retries when a concurrent toggle on the
	// same (user, post) pair changes the row between read and write.
	maxToggleAttempts = 3

	publishTimeout = 2 * time.Second
)

type likeKey struct {
	userID int64
	postID int64
}

type likeMetrics struct {
	toggles   metric.Int64Counter
	conflicts metric.Int64Counter
	drift     metric.Int64Counter
	duration  metric.Float64Histogram
}

func newLikeMetrics(meter metric.Meter) likeMetrics {
	toggles, err := meter.Int64Counter("hobbyhub.like.toggles",
		metric.WithDescription("Committed like toggles"),
		metric.WithUnit("{toggle}"),
	)
	if err != nil {
		log.Printf("[LikeService] Failed to create toggle counter: %v", err)
	}
	conflicts, _ := meter.Int64Counter("hobbyhub.like.conflicts",
		metric.WithDescription("Toggle attempts retried after losing a race"),
		metric.WithUnit("{attempt}"),
	)
	drift, _ := meter.Int64Counter("hobbyhub.like.drift",
		metric.WithDescription("Posts whose stored like_count was repaired"),
		metric.WithUnit("{post}"),
	)
	duration, _ := meter.Float64Histogram("hobbyhub.like.toggle.duration",
		metric.WithDescription("Toggle latency including retries"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	return likeMetrics{toggles: toggles, conflicts: conflicts, drift: drift, duration: duration}
}

// LikeService is the like ledger. Each toggle flips the (user, post) state and
// moves the post's counter in the same transaction, so the counter always
// equals the number of like rows once the transaction commits.
type LikeService struct {
	db        *sqlx.DB
	postRepo  repository.PostRepository
	likeRepo  repository.LikeRepository
	publisher queue.Publisher // nil when Redis is not configured

	locks   *keyedMutex[likeKey]
	tracer  trace.Tracer
	metrics likeMetrics
}

func NewLikeService(
	db *sqlx.DB,
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	publisher queue.Publisher,
) *LikeService {
	return &LikeService{
		db:        db,
		postRepo:  postRepo,
		likeRepo:  likeRepo,
		publisher: publisher,
		locks:     newKeyedMutex[likeKey](),
		tracer:    otel.Tracer(instrumentationName),
		metrics:   newLikeMetrics(otel.Meter(instrumentationName)),
	}
}

// Toggle likes postID for userID if not yet liked, otherwise removes the like.
// Returns the new state and the post's counter after the change.
func (s *LikeService) Toggle(ctx context.Context, userID, postID int64) (*model.ToggleResult, error) {
	startTime := time.Now()
	ctx, span := s.tracer.Start(ctx, "LikeService.Toggle", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("post.id", postID),
	))
	defer span.End()

	unlock := s.locks.Lock(likeKey{userID: userID, postID: postID})
	result, err := s.toggleWithRetry(ctx, userID, postID)
	unlock()

	s.metrics.duration.Record(ctx, float64(time.Since(startTime).Microseconds())/1000)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("like.state", string(result.State)),
		attribute.Int("like.count", result.Likes),
	)
	s.metrics.toggles.Add(ctx, 1, metric.WithAttributes(attribute.String("like.state", string(result.State))))

	log.Printf("[LikeService] Toggle OK: user=%d post=%d state=%s likes=%d",
		userID, postID, result.State, result.Likes)

	s.publish(ctx, queue.NewLikeToggledEvent(postID, userID, string(result.State), result.Likes))
	return result, nil
}

func (s *LikeService) toggleWithRetry(ctx context.Context, userID, postID int64) (*model.ToggleResult, error) {
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		result, err := s.toggleOnce(ctx, userID, postID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, model.ErrAlreadyLiked) && !errors.Is(err, model.ErrNotLiked) {
			return nil, err
		}

		s.metrics.conflicts.Add(ctx, 1)
		log.Printf("[LikeService] Toggle raced: user=%d post=%d attempt=%d err=%v",
			userID, postID, attempt, err)
	}
	return nil, model.ErrToggleConflict
}

// toggleOnce runs one read-decide-write cycle inside a transaction. The post
// row lock (where supported) serializes toggles on the same post.
func (s *LikeService) toggleOnce(ctx context.Context, userID, postID int64) (*model.ToggleResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin toggle tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := s.postRepo.LockLikeCount(ctx, tx, postID); err != nil {
		return nil, err
	}

	liked, err := s.likeRepo.Exists(ctx, tx, userID, postID)
	if err != nil {
		return nil, err
	}

	result := &model.ToggleResult{}
	if liked {
		if err := s.likeRepo.Delete(ctx, tx, userID, postID); err != nil {
			return nil, err
		}
		if result.Likes, err = s.postRepo.AdjustLikeCount(ctx, tx, postID, -1); err != nil {
			return nil, err
		}
		result.State = model.LikeStateNotLiked
	} else {
		if err := s.likeRepo.Create(ctx, tx, userID, postID); err != nil {
			return nil, err
		}
		if result.Likes, err = s.postRepo.AdjustLikeCount(ctx, tx, postID, 1); err != nil {
			return nil, err
		}
		result.State = model.LikeStateLiked
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit toggle tx: %w", err)
	}
	return result, nil
}

// Reconcile recounts postID's like rows and overwrites its counter if they differ.
func (s *LikeService) Reconcile(ctx context.Context, postID int64) (model.Reconciliation, error) {
	ctx, span := s.tracer.Start(ctx, "LikeService.Reconcile", trace.WithAttributes(
		attribute.Int64("post.id", postID),
	))
	defer span.End()

	rec := model.Reconciliation{PostID: postID}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if rec.Before, err = s.postRepo.LockLikeCount(ctx, tx, postID); err != nil {
		return rec, err
	}
	if rec.After, err = s.likeRepo.CountByPost(ctx, tx, postID); err != nil {
		return rec, err
	}

	if rec.Drifted() {
		if err := s.postRepo.SetLikeCount(ctx, tx, postID, rec.After); err != nil {
			return rec, err
		}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return rec, fmt.Errorf("commit reconcile tx: %w", err)
	}

	if rec.Drifted() {
		s.metrics.drift.Add(ctx, 1)
		log.Printf("[LikeService] Reconcile repaired post=%d: %d -> %d", postID, rec.Before, rec.After)
	}
	return rec, nil
}

// ReconcileAll reconciles every post and returns the ones that had drifted.
func (s *LikeService) ReconcileAll(ctx context.Context) ([]model.Reconciliation, error) {
	postIDs, err := s.postRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list post ids: %w", err)
	}

	var repaired []model.Reconciliation
	for _, postID := range postIDs {
		rec, err := s.Reconcile(ctx, postID)
		if errors.Is(err, model.ErrPostNotFound) {
			continue
		}
		if err != nil {
			return repaired, fmt.Errorf("reconcile post %d: %w", postID, err)
		}
		if rec.Drifted() {
			repaired = append(repaired, rec)
		}
	}

	log.Printf("[LikeService] ReconcileAll checked=%d repaired=%d", len(postIDs), len(repaired))
	return repaired, nil
}

// QueueReconcileAll publishes a reconcile request for every post so the
// workers recount them in the background. Returns the number queued.
func (s *LikeService) QueueReconcileAll(ctx context.Context) (int, error) {
	if s.publisher == nil {
		return 0, fmt.Errorf("queue reconcile: no event publisher configured")
	}

	postIDs, err := s.postRepo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list post ids: %w", err)
	}

	for i, postID := range postIDs {
		if _, err := s.publisher.Publish(ctx, queue.NewLikeReconcileEvent(postID)); err != nil {
			return i, fmt.Errorf("queue reconcile for post %d: %w", postID, err)
		}
	}

	log.Printf("[LikeService] QueueReconcileAll queued=%d", len(postIDs))
	return len(postIDs), nil
}

// publish emits an event without failing the request; the toggle has already committed.
func (s *LikeService) publish(ctx context.Context, event queue.LikeEvent) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[LikeService] Failed to publish %s for post=%d: %v", event.Type, event.PostID, err)
	}
}
