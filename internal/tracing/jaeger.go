package tracing

import (
	"io"
	"net"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-client-go/log/zap"

	"github.com/hoadesk/inbox/internal/logger"
)

const SpanTagPod = "pod"

// JaegerConfig is read from JAEGER_*. Until JAEGER_ENABLED=true the client
// hands back a no-op tracer.
type JaegerConfig struct {
	Enabled      bool    `env:"JAEGER_ENABLED" envDefault:"false"`
	ServiceName  string  `env:"JAEGER_SERVICE_NAME" envDefault:"hoa-inbox"`
	Endpoint     string  `env:"JAEGER_ENDPOINT"`
	AgentHost    string  `env:"JAEGER_AGENT_HOST" envDefault:"localhost"`
	AgentPort    string  `env:"JAEGER_AGENT_PORT" envDefault:"6831"`
	LogSpans     bool    `env:"JAEGER_REPORTER_LOG_SPANS" envDefault:"false"`
	SamplerType  string  `env:"JAEGER_SAMPLER_TYPE" envDefault:"const"`
	SamplerParam float64 `env:"JAEGER_SAMPLER_PARAM" envDefault:"1"`
	PodName      string  `env:"POD_NAME"`
}

// InitTracer installs the global tracer used by every span helper in this
// package and returns the closer that flushes it.
func InitTracer(cfg *JaegerConfig, log logger.Logger) (io.Closer, error) {
	tracer, closer, err := jaegerConfiguration(cfg).NewTracer(config.Logger(zap.NewLogger(log.Logger())))
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize jaeger tracer")
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}

func jaegerConfiguration(cfg *JaegerConfig) *config.Configuration {
	jaegerCfg := &config.Configuration{
		ServiceName: cfg.ServiceName,
		Disabled:    !cfg.Enabled,
		Sampler: &config.SamplerConfig{
			Type:  cfg.SamplerType,
			Param: cfg.SamplerParam,
		},
		Reporter: &config.ReporterConfig{
			LogSpans: cfg.LogSpans,
		},
	}
	if cfg.PodName != "" {
		jaegerCfg.Tags = []opentracing.Tag{{Key: SpanTagPod, Value: cfg.PodName}}
	}

	// collector endpoint wins over the UDP agent
	if cfg.Endpoint != "" {
		jaegerCfg.Reporter.CollectorEndpoint = cfg.Endpoint
	} else {
		jaegerCfg.Reporter.LocalAgentHostPort = net.JoinHostPort(cfg.AgentHost, cfg.AgentPort)
	}
	return jaegerCfg
}
