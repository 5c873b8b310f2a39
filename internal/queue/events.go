package queue

import (
	"fmt"
	"strconv"
	"time"
)

// Event types carried on the like stream
const (
	EventLikeToggled   = "like_toggled"
	EventLikeReconcile = "like_reconcile"
)

const (
	StreamLikes        = "stream:likes"
	ConsumerGroupLikes = "like_workers"
)

// LikeEvent is published after a like toggle commits, or to ask workers
// to recount a post's likes.
type LikeEvent struct {
	Type      string
	Timestamp int64 // unix seconds
	PostID    int64
	ActorID   int64  // zero for reconcile requests
	State     string // "liked" or "unliked"
	Likes     int
}

// NewLikeToggledEvent records the committed outcome of one toggle.
func NewLikeToggledEvent(postID, actorID int64, state string, likes int) LikeEvent {
	return LikeEvent{
		Type:      EventLikeToggled,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
		State:     state,
		Likes:     likes,
	}
}

// NewLikeReconcileEvent asks a worker to recount postID's likes.
func NewLikeReconcileEvent(postID int64) LikeEvent {
	return LikeEvent{
		Type:      EventLikeReconcile,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
	}
}

// ToMap flattens the event into stream entry fields, one field per
// attribute, so entries stay readable with XRANGE.
func (e LikeEvent) ToMap() map[string]interface{} {
	values := map[string]interface{}{
		"type":    e.Type,
		"ts":      strconv.FormatInt(e.Timestamp, 10),
		"post_id": strconv.FormatInt(e.PostID, 10),
	}
	if e.Type == EventLikeToggled {
		values["actor_id"] = strconv.FormatInt(e.ActorID, 10)
		values["state"] = e.State
		values["likes"] = strconv.Itoa(e.Likes)
	}
	return values
}

// ParseLikeEvent rebuilds an event from stream entry fields.
func ParseLikeEvent(values map[string]interface{}) (LikeEvent, error) {
	var (
		event LikeEvent
		err   error
	)

	if event.Type, err = stringField(values, "type"); err != nil {
		return LikeEvent{}, err
	}
	if event.PostID, err = intField(values, "post_id"); err != nil {
		return LikeEvent{}, err
	}
	if event.PostID <= 0 {
		return LikeEvent{}, fmt.Errorf("invalid post_id %d", event.PostID)
	}
	if event.Timestamp, err = intField(values, "ts"); err != nil {
		return LikeEvent{}, err
	}

	if event.Type != EventLikeToggled {
		return event, nil
	}

	if event.ActorID, err = intField(values, "actor_id"); err != nil {
		return LikeEvent{}, err
	}
	if event.State, err = stringField(values, "state"); err != nil {
		return LikeEvent{}, err
	}
	likes, err := intField(values, "likes")
	if err != nil {
		return LikeEvent{}, err
	}
	event.Likes = int(likes)
	return event, nil
}

func stringField(values map[string]interface{}, key string) (string, error) {
	s, ok := values[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing field %q", key)
	}
	return s, nil
}

func intField(values map[string]interface{}, key string) (int64, error) {
	s, err := stringField(values, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}
