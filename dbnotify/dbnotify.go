/*

package dbnotify provides a backchannel from the database to push changes to
models out to other locations.

Only Postgres (through the pgx driver) can notify.  On SQLite, or with the pq
connector, a process only hears about its own writes.
*/

package dbnotify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ts4z/puttleague/varz"
)

const (
	sleepOnErrorTime = 5 * time.Second
)

var (
	notificationsReceived = varz.NewMap("notificationsReceived", "table")
	notificationsDropped  = varz.NewInt("notificationsDropped")
)

// NotificationEvent is the JSON payload the league_nights trigger sends.
type NotificationEvent struct {
	Table   string
	OnID    string
	Version int64
}

// Decode parses a notification payload.
func Decode(payload string) (*NotificationEvent, error) {
	event := &NotificationEvent{}
	if err := json.Unmarshal([]byte(payload), event); err != nil {
		return nil, fmt.Errorf("can't unmarshal notification payload %q: %w", payload, err)
	}
	if event.Table == "" || event.OnID == "" {
		return nil, fmt.Errorf("notification payload %q is missing table or id", payload)
	}
	return event, nil
}

type DBNotifyListener struct {
	db                  *sql.DB
	tableNameToConsumer map[string]Consumer
}

type CacheStorage[StoredType any] interface {
	CacheInvalidate(ctx context.Context, key string, version int64)
}

// Caller must implement.
type ClientNotifier[StoredType any] interface {
	NotifyUpdated(ctx context.Context, m StoredType)
}

type StorageFetcher[StoredType any] interface {
	Fetch(ctx context.Context, id string) (StoredType, error)
}

// Caller may use.  This will provide an implementation of consume,
// if the other things are passed in.
type ChangeDispatcher[StoredType any] struct {
	tableName      string
	clientNotifier ClientNotifier[StoredType]
	cacheStorage   CacheStorage[StoredType]
	fetcher        StorageFetcher[StoredType]
}

func (cd *ChangeDispatcher[StoredType]) TableName() string {
	return cd.tableName
}

func NewChangeDispatcher[StoredType any](tableName string, clientNotifier ClientNotifier[StoredType], cacheStorage CacheStorage[StoredType], fetcher StorageFetcher[StoredType]) *ChangeDispatcher[StoredType] {
	return &ChangeDispatcher[StoredType]{
		tableName:      tableName,
		clientNotifier: clientNotifier,
		cacheStorage:   cacheStorage,
		fetcher:        fetcher,
	}
}

type Consumer interface {
	TableName() string
	Consume(ctx context.Context, event *NotificationEvent)
}

// NewDBNotifyListener wants a pgx-backed db.  It borrows one connection for
// as long as Listen runs.
func NewDBNotifyListener(db *sql.DB, consumers ...Consumer) (*DBNotifyListener, error) {
	m := make(map[string]Consumer)
	for _, c := range consumers {
		tableName := c.TableName()
		if _, exists := m[tableName]; exists {
			return nil, fmt.Errorf("duplicate consumer for table %s", tableName)
		}
		m[tableName] = c
	}

	return &DBNotifyListener{db: db, tableNameToConsumer: m}, nil
}

// Listen blocks until ctx is done or the connection fails.
func (cl *DBNotifyListener) Listen(ctx context.Context) error {
	conn, err := cl.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var pgxConn *stdlib.Conn
	err = conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("driver connection is %T, not pgx", driverConn)
		}
		pgxConn = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to get pgx connection: %w", err)
	}

	for table := range cl.tableNameToConsumer {
		channel := fmt.Sprintf("%s_changes", table)
		if _, err := pgxConn.Conn().Exec(ctx, fmt.Sprintf("LISTEN %s", channel)); err != nil {
			return fmt.Errorf("failed to listen on channel %s: %w", channel, err)
		}
	}

	ch := make(chan *NotificationEvent)
	defer close(ch)
	go cl.consumeEvents(ctx, ch)

	for {
		zap.S().Debugf("(awaiting db notifications...)")
		var notification *pgconn.Notification
		if nf, err := pgxConn.Conn().WaitForNotification(ctx); err == nil {
			notification = nf
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error waiting for notification: %w", err)
		}

		zap.S().Debugf("(received db notification %d %s)", notification.PID, notification.Payload)

		event, err := Decode(notification.Payload)
		if err != nil {
			zap.S().Warnf("%v", err)
			notificationsDropped.Add(1)
			time.Sleep(sleepOnErrorTime)
			continue
		}

		ch <- event
	}
}

func (cl *DBNotifyListener) consumeEvents(ctx context.Context, ch <-chan *NotificationEvent) {
	for {
		select {
		case <-ctx.Done():
			zap.S().Infof("stopping DBNotifyListener consumeEvents: %v", ctx.Err())
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			cl.Dispatch(ctx, event)
		}
	}
}

// Dispatch hands event to the consumer for its table, in the background.
func (cl *DBNotifyListener) Dispatch(ctx context.Context, event *NotificationEvent) bool {
	consumer, ok := cl.tableNameToConsumer[event.Table]
	if !ok {
		zap.S().Warnf("no listener for table %s", event.Table)
		notificationsDropped.Add(1)
		return false
	}
	notificationsReceived.WithLabelValues(event.Table).Add(1)
	go consumer.Consume(ctx, event)
	return true
}

func (cd *ChangeDispatcher[StoredType]) Consume(ctx context.Context, event *NotificationEvent) {
	cd.cacheStorage.CacheInvalidate(ctx, event.OnID, event.Version)

	// Read-through.
	item, err := cd.fetcher.Fetch(ctx, event.OnID)
	if err != nil {
		zap.S().Warnf("drop notification: can't fetch item %s %s: %v", cd.tableName, event.OnID, err)
		notificationsDropped.Add(1)
		return
	}

	if cd.clientNotifier != nil {
		cd.clientNotifier.NotifyUpdated(ctx, item)
	}
}
