package internal

import (
	"strings"
	"time"
)

// Config is read from the environment by the relay server.
type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,required=true"`
	AdminPort            int           `env:"ADMIN_PORT,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	AdminUsername        string        `env:"ADMIN_USERNAME,required=true"`
	AdminTokenSecret     string        `env:"ADMIN_TOKEN_SECRET,required=true"`
	StorageDriver        string        `env:"STORAGE_DRIVER,default=badger"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	SQLiteFilepath       string        `env:"SQLITE_FILEPATH,default=./data/chat.db"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	PresenceBufferSize   int           `env:"PRESENCE_BUFFER_SIZE,default=1024"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s"`
	PingTimeout          time.Duration `env:"PING_TIMEOUT,default=10s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=1m"`
	TypingScope          string        `env:"TYPING_SCOPE,default=broadcast"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	LimitMessages        int           `env:"LIMIT_MESSAGES,default=200"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`
}

// Origins splits ALLOWED_ORIGINS on commas. An empty list only accepts
// same-origin WebSocket upgrades.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
