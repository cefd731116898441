package config

import (
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	configMutex   sync.RWMutex
	currentConfig *AppConfig
)

type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type DirectionsConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	TrafficModel    string `mapstructure:"traffic_model"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
}

type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

type ReplayConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// AppConfig holds entire config
type AppConfig struct {
	Server     ServerConfig     `mapstructure:"server"`
	Directions DirectionsConfig `mapstructure:"directions"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Replay     ReplayConfig     `mapstructure:"replay"`
}

// LoadConfig initializes and loads the configuration
func LoadConfig(path string) (*AppConfig, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigType("yaml")

	viper.SetDefault("server.listen_addr", ":5000")
	viper.SetDefault("directions.traffic_model", "best_guess")
	viper.SetDefault("directions.cache_ttl_minutes", 5)
	viper.SetDefault("cache.dir", "nivaranDB")
	viper.SetDefault("replay.interval_seconds", 2)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	configMutex.Lock()
	currentConfig = &cfg
	configMutex.Unlock()

	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		var newCfg AppConfig
		if err := viper.Unmarshal(&newCfg); err == nil {
			configMutex.Lock()
			currentConfig = &newCfg
			configMutex.Unlock()
		}
	})

	return &cfg, nil
}

// GetCurrentConfig returns the current configuration in a thread-safe way
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return currentConfig
}
