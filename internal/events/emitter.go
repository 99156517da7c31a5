package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dwfit/pos-backend-sub000/internal/config"
)

// RedisChannel is the pub/sub channel lifecycle events are mirrored to when a
// redis address is configured.
const RedisChannel = "pos.order.events"

const publishTimeout = 2 * time.Second

// Dispatcher fans events out to the in-process hub and, when configured, to
// redis pub/sub. Emit returns before delivery completes; publish failures are
// logged and dropped.
type Dispatcher struct {
	hub    *Hub
	client *redis.Client
	logger *zap.Logger
}

func NewDispatcher(cfg config.Config, hub *Hub, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{hub: hub, logger: logger}
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		d.client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(cfg.RedisPassword),
		})
	}
	return d
}

func (d *Dispatcher) Emit(event Event) {
	if d == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	d.hub.Publish(event)
	if d.client == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		payload, err := json.Marshal(event)
		if err != nil {
			d.logger.Warn("marshal order event", zap.Error(err))
			return
		}
		if err := d.client.Publish(ctx, RedisChannel, payload).Err(); err != nil {
			d.logger.Warn("publish order event",
				zap.String("event_type", event.EventType),
				zap.Int64("order_id", int64(event.OrderID)),
				zap.Error(err),
			)
		}
	}()
}

func (d *Dispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}
