package link_checker_config

import (
	"time"

	"github.com/NordCoder/Linkerus/internal/obs"
	pginfra "github.com/NordCoder/Linkerus/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Site struct {
	Domain        string `mapstructure:"domain"`
	DefaultLocale string `mapstructure:"default_locale"`
}

type Inputs struct {
	DeepLinks      string `mapstructure:"deep_links"`
	LocaleMap      string `mapstructure:"locale_map"`
	LocalePrefixes string `mapstructure:"locale_prefixes"`
}

type Output struct {
	Snapshot       string   `mapstructure:"snapshot"`
	Mirrors        []string `mapstructure:"mirrors"`
	SpikeThreshold int      `mapstructure:"spike_threshold"`
}

type Probe struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	TimeoutGrowth float64       `mapstructure:"timeout_growth"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	MaxRedirects  int           `mapstructure:"max_redirects"`
	UserAgent     string        `mapstructure:"user_agent"`
	VerifyTLS     bool          `mapstructure:"verify_tls"`
}

type Throttle struct {
	InternalLimit int     `mapstructure:"internal_limit"`
	ExternalLimit int     `mapstructure:"external_limit"`
	ExternalRPS   float64 `mapstructure:"external_rps"`
}

type Runner struct {
	Partitions int           `mapstructure:"partitions"`
	Deadline   time.Duration `mapstructure:"deadline"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Sched struct {
	Tick time.Duration `mapstructure:"tick"`
}

type Kafka struct {
	Enable        bool     `mapstructure:"enable"`
	Brokers       []string `mapstructure:"brokers"`
	EventsTopic   string   `mapstructure:"events_topic"`
	RequestsTopic string   `mapstructure:"requests_topic"`
	GroupID       string   `mapstructure:"group_id"`
}

type Config struct {
	App      App            `mapstructure:"app"`
	Log      obs.LogConfig  `mapstructure:"log"`
	OTEL     obs.OTELConfig `mapstructure:"otel"`
	Site     Site           `mapstructure:"site"`
	Inputs   Inputs         `mapstructure:"inputs"`
	Output   Output         `mapstructure:"output"`
	Probe    Probe          `mapstructure:"probe"`
	Throttle Throttle       `mapstructure:"throttle"`
	Runner   Runner         `mapstructure:"runner"`
	Server   Server         `mapstructure:"server"`
	Sched    Sched          `mapstructure:"sched"`
	Kafka    Kafka          `mapstructure:"kafka"`
	DB       pginfra.Config `mapstructure:"db"`
}
