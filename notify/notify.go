// Package notify publishes night events to other processes: a Redis
// channel for scoreboards, a Kafka topic for anything that wants history.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/varz"
)

var (
	published     = varz.NewMap("published", "sink")
	publishErrors = varz.NewMap("publishErrors", "sink")
)

type Notifier interface {
	NotifyNight(ctx context.Context, ev *model.NightEvent) error
}

// Fanout tells every notifier, and reports all their failures together.
type Fanout []Notifier

var _ Notifier = Fanout(nil)

func (f Fanout) NotifyNight(ctx context.Context, ev *model.NightEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyNight(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops everything.
type Nop struct{}

func (Nop) NotifyNight(context.Context, *model.NightEvent) error { return nil }

// redisClient is the slice of *redis.Client that publishing uses.
type redisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type RedisPublisher struct {
	r       redisClient
	channel string
}

var _ Notifier = (*RedisPublisher)(nil)

func NewRedisPublisher(r redisClient, channel string) *RedisPublisher {
	return &RedisPublisher{r: r, channel: channel}
}

// ConnectRedis dials addr and pings it.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr})
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("can't reach redis at %s: %w", addr, err)
	}
	return c, nil
}

func (p *RedisPublisher) NotifyNight(ctx context.Context, ev *model.NightEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.r.Publish(ctx, p.channel, b).Err(); err != nil {
		publishErrors.WithLabelValues("redis").Add(1)
		return fmt.Errorf("redis publish to %s: %w", p.channel, err)
	}
	published.WithLabelValues("redis").Add(1)
	return nil
}

// messageWriter is the slice of *kafka.Writer that publishing uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	w messageWriter
}

var _ Notifier = (*KafkaPublisher)(nil)

func NewKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// NotifyNight keys messages by night, so one night's events stay in order
// on one partition.
func (p *KafkaPublisher) NotifyNight(ctx context.Context, ev *model.NightEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.LeagueNightID),
		Value: b,
		Time:  ev.At,
	})
	if err != nil {
		publishErrors.WithLabelValues("kafka").Add(1)
		return fmt.Errorf("kafka write: %w", err)
	}
	published.WithLabelValues("kafka").Add(1)
	return nil
}

// Logged wraps a notifier so failures are logged instead of returned, for
// callers that can't do anything about them.
type Logged struct {
	Next Notifier
}

func (l Logged) NotifyNight(ctx context.Context, ev *model.NightEvent) error {
	if err := l.Next.NotifyNight(ctx, ev); err != nil {
		zap.S().Warnf("can't notify %s for night %s version %d: %v", ev.Type, ev.LeagueNightID, ev.Version, err)
	}
	return nil
}

// Options picks and configures the external sinks.
type Options struct {
	// Kind is none, redis, kafka, or both.
	Kind         string
	RedisAddr    string
	RedisChannel string
	KafkaBrokers []string
	KafkaTopic   string
}

// Build connects the sinks Options asks for.  The returned func closes
// them.  An empty Kind is none.
func Build(ctx context.Context, opts Options) (Notifier, func(), error) {
	var sinks Fanout
	closers := []func() error{}
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zap.S().Warnf("closing notifier: %v", err)
			}
		}
	}

	useRedis, useKafka := false, false
	switch opts.Kind {
	case "", "none":
	case "redis":
		useRedis = true
	case "kafka":
		useKafka = true
	case "both":
		useRedis, useKafka = true, true
	default:
		return nil, func() {}, fmt.Errorf("unknown notifier %q", opts.Kind)
	}

	if useRedis {
		c, err := ConnectRedis(ctx, opts.RedisAddr)
		if err != nil {
			return nil, func() {}, err
		}
		closers = append(closers, c.Close)
		sinks = append(sinks, NewRedisPublisher(c, opts.RedisChannel))
		zap.S().Infof("publishing night events to redis %s channel %s", opts.RedisAddr, opts.RedisChannel)
	}
	if useKafka {
		if len(opts.KafkaBrokers) == 0 {
			closeAll()
			return nil, func() {}, errors.New("kafka notifier needs at least one broker")
		}
		w := NewKafkaWriter(opts.KafkaBrokers, opts.KafkaTopic)
		closers = append(closers, w.Close)
		sinks = append(sinks, NewKafkaPublisher(w))
		zap.S().Infof("publishing night events to kafka topic %s", opts.KafkaTopic)
	}

	if len(sinks) == 0 {
		return Nop{}, closeAll, nil
	}
	return sinks, closeAll, nil
}
