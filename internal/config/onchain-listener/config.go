package onchain_listener_config

import (
	"github.com/yoframe/yo-pipeline/internal/obs"
	rdinfra "github.com/yoframe/yo-pipeline/internal/repository/redis"
)

type Chain struct {
	RPCURL          string `mapstructure:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address"`
}

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	Env    string `mapstructure:"env"`
}

func (l Log) AsLoggerConfig(service string) obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, Service: service, Env: l.Env}
}

type OTEL struct {
	Enable      bool    `mapstructure:"enable"`
	ServiceName string  `mapstructure:"service_name"`
	OTLPAddr    string  `mapstructure:"otlp_endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func (o OTEL) AsOTELConfig() obs.OTELConfig {
	return obs.OTELConfig{Enable: o.Enable, Endpoint: o.OTLPAddr, ServiceName: o.ServiceName, SampleRatio: o.SampleRatio}
}

type Sentry struct {
	DSN     string `mapstructure:"dsn"`
	Env     string `mapstructure:"env"`
	Release string `mapstructure:"release"`
}

func (s Sentry) AsSentryConfig() obs.SentryConfig {
	return obs.SentryConfig{DSN: s.DSN, Env: s.Env, Release: s.Release}
}

type Config struct {
	Chain  Chain          `mapstructure:"chain"`
	Out    KafkaOut       `mapstructure:"kafka_out"`
	Redis  rdinfra.Config `mapstructure:"redis"`
	Server Server         `mapstructure:"server"`
	Log    Log            `mapstructure:"log"`
	OTEL   OTEL           `mapstructure:"otel"`
	Sentry Sentry         `mapstructure:"sentry"`
}
