package observability

import (
	"context"

	"github.com/honeynil/BookStoreTochka/internal/infrastructure/observability"
)

// Setup initializes logging, metrics and tracing and returns the tracer
// shutdown function.
func Setup(serviceName, metricsAddr string) func(context.Context) error {
	observability.InitLogger()
	observability.InitMetrics(metricsAddr)
	return observability.InitTracing(serviceName)
}
