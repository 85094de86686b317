// Package notifications fans submission events out to connected websocket
// clients through Redis pub/sub.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"hymnbook/internal/middleware"
	"hymnbook/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// AdminChannel carries events for every connected admin.
	AdminChannel      = "notifications:admins"
	userChannelPrefix = "notifications:user:"
)

// Notifier publishes notifications into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishAdmins sends a notification payload to every admin connection.
func (n *Notifier) PublishAdmins(ctx context.Context, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, AdminChannel, payload).Err()
}

// SubmissionCreated tells admins about a new submission. Auto-approved ones
// are announced too so open review screens can refresh their counts.
func (n *Notifier) SubmissionCreated(ctx context.Context, sub *models.HymnSubmission) error {
	payload, err := encodeEvent(EventSubmissionCreated, payloadFor(sub))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.PublishAdmins(ctx, payload)
}

// SubmissionReviewed tells admins and the submitter about a review decision.
func (n *Notifier) SubmissionReviewed(ctx context.Context, sub *models.HymnSubmission) error {
	payload, err := encodeEvent(EventSubmissionReviewed, payloadFor(sub))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := n.PublishAdmins(ctx, payload); err != nil {
		return err
	}
	return n.PublishUser(ctx, sub.SubmittedBy, payload)
}

// StartSubscriber subscribes to the admin and per-user channels and calls
// onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", AdminChannel)
	// Wait for the subscription so publishes right after start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// parseUserChannel extracts the user id from a channel built by UserChannel.
func parseUserChannel(channel string) (uint, bool) {
	if len(channel) <= len(userChannelPrefix) || channel[:len(userChannelPrefix)] != userChannelPrefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(userChannelPrefix):], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
