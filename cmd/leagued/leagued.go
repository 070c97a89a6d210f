// leagued serves the read-only league night API and pushes night events to
// the configured sinks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ts4z/puttleague/config"
	"github.com/ts4z/puttleague/dbcache"
	"github.com/ts4z/puttleague/dbnotify"
	"github.com/ts4z/puttleague/dbutil"
	"github.com/ts4z/puttleague/gossip"
	"github.com/ts4z/puttleague/league"
	"github.com/ts4z/puttleague/logging"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/notify"
	"github.com/ts4z/puttleague/state"
	"github.com/ts4z/puttleague/ts"
	"github.com/ts4z/puttleague/webapp"
)

const listenRetryDelay = 10 * time.Second

// listenForChanges keeps a LISTEN connection open until ctx ends, so writes
// from leagueadmin and other leagued instances reach our listeners.
func listenForChanges(ctx context.Context, l *dbnotify.DBNotifyListener) {
	for {
		err := l.Listen(ctx)
		if ctx.Err() != nil {
			return
		}
		zap.S().Warnf("db notification listener stopped: %v; retrying in %v", err, listenRetryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(listenRetryDelay):
		}
	}
}

func main() {
	config.Init()
	flush, err := logging.Init("leagued", config.Env())
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't set up logging: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := ts.NewRealClock()

	db, err := dbutil.Connect()
	if err != nil {
		zap.S().Fatalf("can't configure database: %v", err)
	}
	base := state.NewDBStorage(db)
	defer base.Close()

	storage := dbcache.NewStorage(base, config.CacheSize(), clock, config.RosterTTL())
	gossiper := gossip.NewNightGossiper(storage.Nights, clock)

	external, closeNotifiers, err := notify.Build(ctx, notify.Options{
		Kind:         config.Notifier(),
		RedisAddr:    config.RedisAddr(),
		RedisChannel: config.RedisChannel(),
		KafkaBrokers: config.KafkaBrokers(),
		KafkaTopic:   config.KafkaTopic(),
	})
	if err != nil {
		zap.S().Fatalf("can't set up notifier: %v", err)
	}
	defer closeNotifiers()

	mgr := league.NewManager(storage, notify.Fanout{gossiper, notify.Logged{Next: external}}, clock, league.Config{
		ProtectedDivision: config.ProtectedDivision(),
	})
	gossiper.SetFiller(mgr)

	switch config.SQLConnector() {
	case "pgx", "connector":
		dispatcher := dbnotify.NewChangeDispatcher[*model.LeagueNight]("league_nights", gossiper, storage.Nights, storage.Nights)
		l, err := dbnotify.NewDBNotifyListener(db.DB, dispatcher)
		if err != nil {
			zap.S().Fatalf("can't set up db notification listener: %v", err)
		}
		go listenForChanges(ctx, l)
	default:
		zap.S().Infof("%s connector can't LISTEN; only this process's writes reach listeners", config.SQLConnector())
	}

	app := webapp.New(&webapp.Config{
		League:         mgr,
		Listener:       gossiper,
		Clock:          clock,
		AllowedOrigins: config.AllowedOrigins(),
		ListenTimeout:  config.ListenTimeout(),
		RotationMaxAge: config.RotationMaxAge(),
	})
	app.Handle("GET /metrics", promhttp.Handler())

	zap.S().Infof("leagued listening on %s", config.ListenAddress())
	if err := app.Serve(ctx, config.ListenAddress()); err != nil {
		zap.S().Fatalf("can't serve: %v", err)
	}
}
