package tracing

import (
	"ieflow/common"
	"io"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerlog "github.com/uber/jaeger-client-go/log"
)

// InitGlobalTracerFromEnv installs a jaeger tracer when JAEGER_AGENT_HOST or JAEGER_ENDPOINT is set,
// the global tracer stays a no-op tracer otherwise. The returned closer flushes pending spans.
func InitGlobalTracerFromEnv() (io.Closer, error) {
	if os.Getenv("JAEGER_AGENT_HOST") == "" && os.Getenv("JAEGER_ENDPOINT") == "" {
		logrus.Infoln("jaeger is not configured, tracing is disabled")
		return nopCloser{}, nil
	}

	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = common.GetServiceName()
	}
	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(jaegerlog.StdLogger))
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	logrus.Infof("jaeger tracer of service '%s' installed", cfg.ServiceName)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}
