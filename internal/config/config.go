package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int      `mapstructure:"port"`
	LogLevel           string   `mapstructure:"log_level"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	ClusterName        string   `mapstructure:"cluster_name"`
	KubeconfigPath     string   `mapstructure:"kubeconfig_path"`
	KubeContext        string   `mapstructure:"kube_context"`
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"`  // HTTP read/write; 0 = server default
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"` // Graceful shutdown wait
	K8sTimeoutSec      int      `mapstructure:"k8s_timeout_sec"`      // Timeout for outbound K8s API calls; 0 = default
	K8sRateLimitPerSec float64  `mapstructure:"k8s_rate_limit_per_sec"`
	K8sRateLimitBurst  int      `mapstructure:"k8s_rate_limit_burst"`
	GraphCacheTTLSec   int      `mapstructure:"graph_cache_ttl_sec"` // Graph cache TTL; 0 = cache disabled

	// Snapshot history storage. Driver is "sqlite" or "postgres".
	DatabaseDriver string `mapstructure:"database_driver"`
	DatabasePath   string `mapstructure:"database_path"` // sqlite file path
	DatabaseDSN    string `mapstructure:"database_dsn"`  // postgres DSN
	HistoryLimit   int    `mapstructure:"history_limit"` // snapshots kept per workload; 0 = unlimited

	// OTLP trace export endpoint; empty disables tracing.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPProtocol string `mapstructure:"otlp_protocol"` // "grpc" or "http"
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/kaptivan/")
	viper.AddConfigPath("$HOME/.kaptivan")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("cluster_name", "default")
	viper.SetDefault("kubeconfig_path", "")
	viper.SetDefault("kube_context", "")
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("k8s_timeout_sec", 30)
	viper.SetDefault("k8s_rate_limit_per_sec", 0) // 0 = disabled
	viper.SetDefault("k8s_rate_limit_burst", 0)
	viper.SetDefault("graph_cache_ttl_sec", 30)
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_path", "./kaptivan.db")
	viper.SetDefault("database_dsn", "")
	viper.SetDefault("history_limit", 50)
	viper.SetDefault("otlp_endpoint", "")
	viper.SetDefault("otlp_protocol", "grpc")

	// Environment variables
	viper.SetEnvPrefix("KAPTIVAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
