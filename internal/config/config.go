package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Console holds wmsctl configuration.
type Console struct {
	API       APIConfig
	Dashboard DashboardConfig
	UI        UIConfig
	Log       LogConfig
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DashboardConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	RecentOrders int           `mapstructure:"recent_orders"`
}

// UIConfig holds presentation settings only.
type UIConfig struct {
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from file and env. Env var overrides use prefix WMSCTL_, and
// WMSCTL_CONFIG names an explicit config file.
func Load() (Console, error) {
	return load(os.Getenv("WMSCTL_CONFIG"))
}

// LoadFile is Load with an explicit config file path; empty falls back to Load's lookup.
func LoadFile(path string) (Console, error) {
	if path == "" {
		return Load()
	}
	return load(path)
}

func load(path string) (Console, error) {
	v := viper.New()

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("dashboard.poll_interval", 30*time.Second)
	v.SetDefault("dashboard.recent_orders", 5)
	v.SetDefault("ui.low_stock_threshold", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", defaultLogFile())

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(homeDir(), ".config", "wmsctl"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("WMSCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit file must exist; the default location is optional
		if path != "" || !errors.As(err, &notFound) {
			return Console{}, errors.Wrap(err, "read config")
		}
	}

	var c Console
	if err := v.Unmarshal(&c); err != nil {
		return Console{}, errors.Wrap(err, "unmarshal config")
	}
	if c.Dashboard.RecentOrders <= 0 {
		c.Dashboard.RecentOrders = 5
	}
	return c, nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

func defaultLogFile() string {
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		state = filepath.Join(homeDir(), ".local", "state")
	}
	return filepath.Join(state, "wmsctl", "wmsctl.log")
}

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// Server holds inventoryd configuration, read from INVENTORYD_* variables.
type Server struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr        string        `envconfig:"GRPC_ADDR" default:":50051"`
	MySQLDSN        string        `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/warehouse?parseTime=true&multiStatements=true"`
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Workers         int           `envconfig:"WORKERS" default:"4"`
	QueueSize       int           `envconfig:"QUEUE_SIZE" default:"1000"`
	AllocationDelay time.Duration `envconfig:"ALLOCATION_DELAY" default:"2s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	// Storage selects the backends: "mysql" uses MySQL and Redis, "memory" keeps
	// everything in process.
	Storage string `envconfig:"STORAGE" default:"mysql"`
}

func LoadServer() (Server, error) {
	var s Server
	if err := envconfig.Process("inventoryd", &s); err != nil {
		return Server{}, errors.Wrap(err, "process env")
	}
	if s.Workers <= 0 {
		return Server{}, errors.Errorf("workers must be positive, got %d", s.Workers)
	}
	if s.QueueSize <= 0 {
		return Server{}, errors.Errorf("queue size must be positive, got %d", s.QueueSize)
	}
	if s.Storage != StorageMySQL && s.Storage != StorageMemory {
		return Server{}, errors.Errorf("unknown storage %q", s.Storage)
	}
	return s, nil
}
