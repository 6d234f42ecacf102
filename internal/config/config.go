package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log_level" env:"MCASTLOG_LOG_LEVEL" env-default:"info"`
	Multicast Multicast `yaml:"multicast"`
	Listen    Listen    `yaml:"listen"`
}

type Multicast struct {
	RemoteHost   string `yaml:"remote_host" env:"MCASTLOG_REMOTE_HOST"`
	Port         int    `yaml:"port" env:"MCASTLOG_PORT" env-default:"9991"`
	TimeToLive   int    `yaml:"ttl" env:"MCASTLOG_TTL" env-default:"0"`
	Encoding     string `yaml:"encoding" env:"MCASTLOG_ENCODING"`
	LocationInfo bool   `yaml:"location_info" env:"MCASTLOG_LOCATION_INFO" env-default:"false"`
	Application  string `yaml:"application" env:"MCASTLOG_APP"`
	Advertise    bool   `yaml:"advertise" env:"MCASTLOG_ADVERTISE" env-default:"false"`
	Name         string `yaml:"name" env:"MCASTLOG_NAME" env-default:"mcastlog"`
}

type Listen struct {
	Group     string `yaml:"group" env:"MCASTLOG_LISTEN_GROUP"`
	Port      int    `yaml:"port" env:"MCASTLOG_LISTEN_PORT" env-default:"9991"`
	Interface string `yaml:"interface" env:"MCASTLOG_LISTEN_INTERFACE"`
	Format    string `yaml:"format" env:"MCASTLOG_LISTEN_FORMAT" env-default:"kv"`
}

// Load reads configPath when given, then the environment. Environment values win.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath == "" {
		configPath = os.Getenv("MCASTLOG_CONFIG")
	}

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
