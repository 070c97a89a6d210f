package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ts4z/puttleague/config"
)

type cloudEnvSettings struct {
	dbUser,
	dbPwd,
	dbName,
	instanceConnectionName,
	usePrivate string
}

func (s *cloudEnvSettings) getenv() error {
	unset := []string{}
	getenv := func(k string) string {
		v := os.Getenv(k)
		if v == "" {
			unset = append(unset, k)
		}
		return v
	}

	s.dbUser = getenv("DB_USER")                                  // e.g. 'my-db-user'
	s.dbPwd = getenv("DB_PASS")                                   // e.g. 'my-db-password'
	s.dbName = getenv("DB_NAME")                                  // e.g. 'my-database'
	s.instanceConnectionName = getenv("INSTANCE_CONNECTION_NAME") // e.g. 'project:region:instance'
	s.usePrivate = os.Getenv("PRIVATE_IP")

	if len(unset) > 0 {
		return fmt.Errorf("cloudsqlconn: unset variables: %+v", unset)
	}
	return nil
}

func connectWithConnector(url string) (*sqlx.DB, error) {
	env := &cloudEnvSettings{}
	if err := env.getenv(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("user=%s password=%s database=%s", env.dbUser, env.dbPwd, env.dbName)
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if env.usePrivate != "" {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	// Refresh on demand; background refreshes get throttled on serverless.
	opts = append(opts, cloudsqlconn.WithLazyRefresh())
	d, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	config.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, env.instanceConnectionName)
	}
	dbURI := stdlib.RegisterConnConfig(config)
	db, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return sqlx.NewDb(db, "pgx"), nil
}

func openURL(driver string) func(url string) (*sqlx.DB, error) {
	return func(url string) (*sqlx.DB, error) {
		if url == "" {
			return nil, errors.New("database URL is empty")
		}
		zap.S().Infof("Connecting to %s database", driver)
		return sqlx.Open(driver, url)
	}
}

var factories = map[string]func(url string) (*sqlx.DB, error){
	"connector": connectWithConnector,
	"pgx":       openURL("pgx"),
	"pq":        openURL("postgres"),
	"sqlite":    openURL("sqlite3"),
}

// Connect opens the configured database.
func Connect() (*sqlx.DB, error) {
	return Open(config.SQLConnector(), config.DBURL())
}

// Open opens url with a named connector: pgx, pq, sqlite, or connector
// (Cloud SQL, which ignores url and reads the environment).
func Open(connector, url string) (*sqlx.DB, error) {
	factory, ok := factories[connector]
	if !ok {
		return nil, fmt.Errorf("unknown sql connector %q", connector)
	}
	return factory(url)
}
