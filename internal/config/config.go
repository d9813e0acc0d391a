// Package config loads todolist settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendMongo  = "mongo"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Default values.
const (
	DefaultDataDir         = ".todolist"
	DefaultConfigFile      = "config.toml"
	DefaultBackend         = BackendSQLite
	DefaultMongoDatabase   = "todolist"
	DefaultMongoCollection = "kv"
	DefaultWebAddr         = ":8000"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Web     WebConfig     `toml:"web"`
	Breaker BreakerConfig `toml:"breaker"`

	// DataDir is where relative paths are resolved. Set from the -data-dir flag.
	DataDir string `toml:"-"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	// Path is the sqlite database or the JSON store file, depending on Backend.
	Path            string `toml:"path"`
	DSN             string `toml:"dsn"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	SnapshotPath    string `toml:"snapshot_path"`
	AutoSnapshot    bool   `toml:"auto_snapshot"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type WebConfig struct {
	Addr string `toml:"addr"`
}

type BreakerConfig struct {
	MaxFailures uint32        `toml:"max_failures"`
	Timeout     time.Duration `toml:"timeout"`
}

// Default returns the configuration used when no file is present.
func Default(dataDir string) *Config {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	return &Config{
		DataDir: dataDir,
		Storage: StorageConfig{
			Backend:         DefaultBackend,
			MongoDatabase:   DefaultMongoDatabase,
			MongoCollection: DefaultMongoCollection,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Web: WebConfig{Addr: DefaultWebAddr},
		Breaker: BreakerConfig{
			MaxFailures: 3,
			Timeout:     5 * time.Second,
		},
	}
}

// Load reads path on top of the defaults. An empty path means
// <dataDir>/config.toml. A missing file is not an error.
func Load(dataDir, path string) (*Config, error) {
	cfg := Default(dataDir)
	if path == "" {
		path = filepath.Join(cfg.DataDir, DefaultConfigFile)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate normalizes values and rejects unusable combinations.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}

	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	case BackendMySQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the mysql backend")
		}
	case BackendMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "":
		c.Log.Level = DefaultLogLevel
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}

	switch c.Log.Format {
	case "":
		c.Log.Format = DefaultLogFormat
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}

	if c.Web.Addr == "" {
		c.Web.Addr = DefaultWebAddr
	}
	return nil
}

// StoragePath returns the sqlite or file store path, resolved against DataDir.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.resolve(c.Storage.Path)
	}
	if c.Storage.Backend == BackendFile {
		return filepath.Join(c.DataDir, "todos.json")
	}
	return filepath.Join(c.DataDir, "todolist.db")
}

// SnapshotPath returns the snapshot file path, resolved against DataDir.
func (c *Config) SnapshotPath() string {
	if c.Storage.SnapshotPath != "" {
		return c.resolve(c.Storage.SnapshotPath)
	}
	return filepath.Join(c.DataDir, "snapshot.jsonl")
}

// LogFile returns the log file path, or "" for stderr.
func (c *Config) LogFile() string {
	if c.Log.File == "" {
		return ""
	}
	return c.resolve(c.Log.File)
}

// Remote reports whether the backend talks to a server.
func (c *Config) Remote() bool {
	return c.Storage.Backend == BackendMySQL || c.Storage.Backend == BackendMongo
}

func (c *Config) resolve(p string) string {
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Example is written by `todolist init`.
const Example = `# todolist configuration

[storage]
# sqlite | mysql | mongo | file | memory
backend = "sqlite"
# path = "todolist.db"
# dsn = "user:pass@tcp(localhost:3306)/todolist"
# mongo_uri = "mongodb://localhost:27017"
# snapshot_path = "snapshot.jsonl"
auto_snapshot = false

[log]
level = "info"
format = "text"
# file = "todolist.log"

[web]
addr = ":8000"

[breaker]
max_failures = 3
timeout = "5s"
`
