package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "lookup-values/common/config"
)

// Config lookup-values (HTTP API) settings
type Config struct {
	HTTP struct {
		Addr string
	}
	Database commoncfg.DatabaseConfig
	// Bootstrap creates _lookups and _lookup_values when missing.
	Bootstrap bool
	Log       struct {
		Level  string
		Format string
		Output string
	}
	Redis struct {
		Enabled bool
		commoncfg.RedisConfig
	}
	Events struct {
		Stream       string
		StreamMaxLen int64
	}
	MQTT struct {
		Enabled bool
		Topic   string
		commoncfg.MQTTConfig
	}
	LookupService commoncfg.LookupServiceConfig
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Driver = getEnv("DB_DRIVER", commoncfg.DriverPostgres)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "lookups")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", "file:lookup-values.db")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.Bootstrap = getEnv("DB_BOOTSTRAP", "true") == "true"

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.Output = getEnv("LOG_OUTPUT", "stdout")

	// Redis stream events (disabled by default)
	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.PoolSize = parseInt(getEnv("REDIS_POOL_SIZE", "0"), 0)
	cfg.Redis.DialTimeout = parseDuration(getEnv("REDIS_DIAL_TIMEOUT", "5s"), 5*time.Second)
	cfg.Redis.ReadTimeout = parseDuration(getEnv("REDIS_READ_TIMEOUT", "3s"), 3*time.Second)
	cfg.Redis.WriteTimeout = parseDuration(getEnv("REDIS_WRITE_TIMEOUT", "3s"), 3*time.Second)
	cfg.Events.Stream = getEnv("EVENTS_STREAM", "lookup-values.events")
	cfg.Events.StreamMaxLen = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))

	// MQTT events (disabled by default)
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "lookup-values")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "lookup-values/events")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	// remote lookup collaborator; empty means the local _lookups table
	cfg.LookupService.BaseURL = getEnv("LOOKUP_SERVICE_URL", "")
	cfg.LookupService.Timeout = parseDuration(getEnv("LOOKUP_SERVICE_TIMEOUT", "10s"), 10*time.Second)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
