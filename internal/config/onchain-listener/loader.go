package onchain_listener_config

import (
	"strings"

	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("chain.rpc_url", "wss://base-rpc.publicnode.com")
	v.SetDefault("chain.contract_address", "")

	v.SetDefault("kafka_out.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka_out.topic", "yo.onchain-messages")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("server.metrics_addr", ":8081")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.env", "dev")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "onchain-listener")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.env", "dev")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
