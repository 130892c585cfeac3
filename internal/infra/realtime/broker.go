package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Watched tables
const (
	TableAppointments  = "appointments"
	TableClients       = "clients"
	TableSales         = "sales"
	TableNotifications = "notifications"
	TableWaitlist      = "waitlist"
)

const channelPrefix = "realtime:"

// ChangeEvent signals a row change. Consumers reload what they show rather
// than merging the payload.
type ChangeEvent struct {
	Type     string    `json:"type"`
	Table    string    `json:"table"`
	TenantID uint      `json:"tenant_id"`
	RecordID uint      `json:"record_id"`
	At       time.Time `json:"at"`
}

// Channel is the per table, per tenant channel name.
func Channel(table string, tenantID uint) string {
	return fmt.Sprintf("%s%s:user_id=eq.%d", channelPrefix, table, tenantID)
}

type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Nop discards events. Used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, ChangeEvent) error { return nil }

// Emit publishes best effort: a failure is logged and never returned.
func Emit(ctx context.Context, p Publisher, typ, table string, tenantID, recordID uint) {
	if p == nil {
		return
	}
	ev := ChangeEvent{Type: typ, Table: table, TenantID: tenantID, RecordID: recordID, At: time.Now().UTC()}
	if err := p.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("table", table).Msg("realtime publish failed")
	}
}

type Broker struct {
	rdb *redis.Client
}

func NewBroker(rdb *redis.Client) *Broker {
	return &Broker{rdb: rdb}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("realtime: parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (b *Broker) Publish(ctx context.Context, ev ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: marshal event: %w", err)
	}

	if err := b.rdb.Publish(ctx, Channel(ev.Table, ev.TenantID), payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish: %w", err)
	}
	return nil
}

// Subscribe streams one tenant's events for the given tables, or for every
// table when none is given. The channel closes when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, tenantID uint, tables ...string) (<-chan ChangeEvent, error) {
	var pubsub *redis.PubSub
	if len(tables) == 0 {
		pubsub = b.rdb.PSubscribe(ctx, fmt.Sprintf("%s*:user_id=eq.%d", channelPrefix, tenantID))
	} else {
		channels := make([]string, 0, len(tables))
		for _, t := range tables {
			channels = append(channels, Channel(t, tenantID))
		}
		pubsub = b.rdb.Subscribe(ctx, channels...)
	}
	return b.stream(ctx, pubsub)
}

// SubscribeAll streams every tenant's events.
func (b *Broker) SubscribeAll(ctx context.Context) (<-chan ChangeEvent, error) {
	return b.stream(ctx, b.rdb.PSubscribe(ctx, channelPrefix+"*"))
}

func (b *Broker) stream(ctx context.Context, pubsub *redis.PubSub) (<-chan ChangeEvent, error) {
	// confirm the subscription before anything is published
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("realtime: subscribe: %w", err)
	}

	out := make(chan ChangeEvent, 16)
	msgs := pubsub.Channel()

	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("realtime: bad payload")
					continue
				}

				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// TableOf extracts the table from a channel name.
func TableOf(channel string) string {
	rest := strings.TrimPrefix(channel, channelPrefix)
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i]
	}
	return rest
}
