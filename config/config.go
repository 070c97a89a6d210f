// Package config handles pre-database configuration, such as the location of
// the database.  This is used by both leagued and leagueadmin.
//
// Settings come from ~/.puttleague (YAML) and PUTTLEAGUE_* environment
// variables, environment winning.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"maze.io/x/duration"
)

const envPrefix = "PUTTLEAGUE"

var defaults = map[string]any{
	"db_url":               "",
	"sql_connector":        "pgx",
	"listen_address":       ":8080",
	"env":                  "local",
	"protected_division":   "CCC",
	"min_players_per_card": 3,
	"shuffle_cards":        true,
	"notifier":             "none",
	"redis_addr":           "localhost:6379",
	"redis_channel":        "league_night_updates",
	"kafka_brokers":        "localhost:9092",
	"kafka_topic":          "league-night-events",
	"cache_size":           16,
	"roster_ttl":           "30m",
	"listen_timeout":       "1m",
	"allowed_origins":      "*",
	"rotation_max_age":     "1h",
}

// Viper-based config loader.  Call once, before logging is set up; it logs
// through whatever global zap logger exists.
func Init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetConfigType("yaml")
	viper.SetConfigName(".puttleague")
	viper.AddConfigPath(home)
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	for k, v := range defaults {
		viper.BindEnv(k, envPrefix+"_"+strings.ToUpper(k))
		viper.SetDefault(k, v)
	}
	err = viper.ReadInConfig() // ignore error if config file missing
	if err != nil {
		zap.S().Infof("viper can't read config file: %v", err)
	}
	zap.S().Infof("Using sql connector: %s", SQLConnector())
	zap.S().Infof("Using listen address: %s", ListenAddress())
}

func DBURL() string {
	return viper.GetString("db_url")
}

func SQLConnector() string {
	return viper.GetString("sql_connector")
}

func ListenAddress() string {
	return viper.GetString("listen_address")
}

// Env is "local" for development logging, anything else for production.
func Env() string {
	return viper.GetString("env")
}

func ProtectedDivision() string {
	return viper.GetString("protected_division")
}

func MinPlayersPerCard() int {
	return viper.GetInt("min_players_per_card")
}

func ShuffleCards() bool {
	return viper.GetBool("shuffle_cards")
}

// Notifier is one of none, redis, kafka, or both.
func Notifier() string {
	return strings.ToLower(viper.GetString("notifier"))
}

func RedisAddr() string {
	return viper.GetString("redis_addr")
}

func RedisChannel() string {
	return viper.GetString("redis_channel")
}

func KafkaBrokers() []string {
	return splitList("kafka_brokers")
}

func KafkaTopic() string {
	return viper.GetString("kafka_topic")
}

// AllowedOrigins is the CORS origin list for the read-only API.
func AllowedOrigins() []string {
	return splitList("allowed_origins")
}

func splitList(key string) []string {
	out := []string{}
	for _, b := range strings.Split(viper.GetString(key), ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func CacheSize() int {
	return viper.GetInt("cache_size")
}

func RosterTTL() time.Duration {
	return durationOrDefault("roster_ttl")
}

func ListenTimeout() time.Duration {
	return durationOrDefault("listen_timeout")
}

// RotationMaxAge is how long clients may cache rotation lookups.
func RotationMaxAge() time.Duration {
	return durationOrDefault("rotation_max_age")
}

// durationOrDefault parses a setting with maze.io/x/duration, which also
// understands days and weeks.  A bad value falls back to the default.
func durationOrDefault(key string) time.Duration {
	s := viper.GetString(key)
	d, err := duration.ParseDuration(s)
	if err != nil {
		zap.S().Warnf("bad duration %q for %s: %v", s, key, err)
		d, _ = duration.ParseDuration(defaults[key].(string))
	}
	return time.Duration(d)
}
