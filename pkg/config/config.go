package config

import "time"

// StoreDriver history store backend
type StoreDriver string

const (
	// StoreMongo chat history in MongoDB (default)
	StoreMongo StoreDriver = "mongo"
	// StorePostgres chat history in PostgreSQL through gorm
	StorePostgres StoreDriver = "postgres"
	// StoreSQLite chat history in a local SQLite file through gorm
	StoreSQLite StoreDriver = "sqlite"
	// StoreRedis chat history as JSON documents in Redis
	StoreRedis StoreDriver = "redis"
	// StoreMemory chat history kept in process, lost on restart
	StoreMemory StoreDriver = "memory"
)

// Chat definition chat_service YAML structure
type Chat struct {
	Port string `mapstructure:"port"`

	Store    StoreConfig    `mapstructure:"store"`
	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Postgres DatabaseConfig `mapstructure:"pg"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`

	Auth      AuthConfig      `mapstructure:"auth"`
	Persist   PersistConfig   `mapstructure:"persist"`
	WebSocket WebSocketConfig `mapstructure:"ws"`
	CORS      CORSConfig      `mapstructure:"cors"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig select history backend
type StoreConfig struct {
	Driver StoreDriver `mapstructure:"driver"`
}

// AuthConfig header secrets, an empty secret rejects every request
type AuthConfig struct {
	APIKey   string `mapstructure:"api_key"`
	AdminKey string `mapstructure:"admin_key"`
}

// PersistConfig async history writes
type PersistConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// WebSocketConfig websocket connection setting
type WebSocketConfig struct {
	PingInterval time.Duration `mapstructure:"ping_interval"`
	SendBuffer   int           `mapstructure:"send_buffer"`
}

// CORSConfig allowed browser origins, comma separated
type CORSConfig struct {
	AllowOrigins string `mapstructure:"allow_origins"`
}

// RedisConfig definition redis setting
// sentinels take precedence over addr when both are set
type RedisConfig struct {
	Addr       string   `mapstructure:"addr"`
	Password   string   `mapstructure:"password"`
	RedisDB    int      `mapstructure:"redis_db"`
	MasterName string   `mapstructure:"master_name"`
	Sentinels  []string `mapstructure:"sentinels"`
	KeyPrefix  string   `mapstructure:"key_prefix"`
}

// SQLiteConfig sqlite file path
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// SetDefaults fill zero values
func (c *Chat) SetDefaults() {
	if c.Port == "" {
		c.Port = "8090"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMongo
	}
	if c.Persist.Timeout <= 0 {
		c.Persist.Timeout = 10 * time.Second
	}
	if c.WebSocket.PingInterval <= 0 {
		c.WebSocket.PingInterval = 30 * time.Second
	}
	if c.WebSocket.SendBuffer <= 0 {
		c.WebSocket.SendBuffer = 256
	}
	if c.CORS.AllowOrigins == "" {
		c.CORS.AllowOrigins = "http://localhost:3000"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "chat"
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "chat.db"
	}
}
