package notifier_config

import (
	"time"

	"github.com/yoframe/yo-pipeline/internal/obs"
	"github.com/yoframe/yo-pipeline/internal/repository/kafka"
	rdinfra "github.com/yoframe/yo-pipeline/internal/repository/redis"
)

type KafkaIn struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	GroupID     string   `mapstructure:"group_id"`
	Concurrency int      `mapstructure:"concurrency"`
}

func (k KafkaIn) AsConsumerConfig() *kafka.ConsumerConfig {
	return &kafka.ConsumerConfig{
		Brokers:     k.Brokers,
		Topic:       k.Topic,
		GroupID:     k.GroupID,
		Concurrency: k.Concurrency,
	}
}

type Push struct {
	Timeout time.Duration `mapstructure:"timeout"`
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
	Redis  rdinfra.Config `mapstructure:"redis"`
	In     KafkaIn        `mapstructure:"kafka_in"`
	Push   Push           `mapstructure:"push"`
	Server Server         `mapstructure:"server"`
	Log    Log            `mapstructure:"log"`
	OTEL   OTEL           `mapstructure:"otel"`
	Sentry Sentry         `mapstructure:"sentry"`
}
