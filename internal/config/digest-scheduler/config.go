package digest_scheduler_config

import (
	"time"

	"github.com/yoframe/yo-pipeline/internal/obs"
	"github.com/yoframe/yo-pipeline/internal/repository/farcaster"
	pginfra "github.com/yoframe/yo-pipeline/internal/repository/postgres"
	rdinfra "github.com/yoframe/yo-pipeline/internal/repository/redis"
)

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Digest struct {
	Interval time.Duration `mapstructure:"interval"`
	AppURL   string        `mapstructure:"app_url"`
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
	DB        pginfra.Config   `mapstructure:"db"`
	Redis     rdinfra.Config   `mapstructure:"redis"`
	Farcaster farcaster.Config `mapstructure:"farcaster"`
	Out       KafkaOut         `mapstructure:"kafka_out"`
	Digest    Digest           `mapstructure:"digest"`
	Server    Server           `mapstructure:"server"`
	Log       Log              `mapstructure:"log"`
	OTEL      OTEL             `mapstructure:"otel"`
	Sentry    Sentry           `mapstructure:"sentry"`
}
