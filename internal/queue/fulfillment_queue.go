package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const fulfillmentKey = "fulfillment:orders"

// Fulfiller consumes dispatched order IDs.
type Fulfiller interface {
	Fulfill(ctx context.Context, orderID uuid.UUID) error
}

// FulfillmentQueue carries paid order IDs from the order state machine to
// the fulfillment engine over a redis list. Fulfillment is idempotent, so a
// redelivered or requeued ID is harmless.
type FulfillmentQueue struct {
	client *redis.Client
}

func NewFulfillmentQueue(client *redis.Client) *FulfillmentQueue {
	return &FulfillmentQueue{client: client}
}

func (q *FulfillmentQueue) Dispatch(ctx context.Context, orderID uuid.UUID) error {
	return q.client.LPush(ctx, fulfillmentKey, orderID.String()).Err()
}

// Consume blocks on the queue until ctx is cancelled, fulfilling each order
// as it arrives. A failed order is pushed back for a later attempt.
func (q *FulfillmentQueue) Consume(ctx context.Context, fulfiller Fulfiller) {
	for {
		values, err := q.client.BRPop(ctx, 5*time.Second, fulfillmentKey).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				logrus.WithError(err).Error("failed to read fulfillment queue")
				time.Sleep(time.Second)
			}
			continue
		}
		// BRPop returns [key, value].
		if len(values) < 2 {
			continue
		}
		orderID, err := uuid.Parse(values[1])
		if err != nil {
			logrus.WithField("value", values[1]).Warn("discarding malformed fulfillment queue entry")
			continue
		}
		if err := fulfiller.Fulfill(ctx, orderID); err != nil {
			logrus.WithError(err).WithField("order_id", orderID).
				Error("fulfillment attempt failed, requeueing")
			if pushErr := q.client.LPush(ctx, fulfillmentKey, orderID.String()).Err(); pushErr != nil {
				logrus.WithError(pushErr).WithField("order_id", orderID).
					Error("failed to requeue order for fulfillment")
			}
			time.Sleep(time.Second)
		}
	}
}
