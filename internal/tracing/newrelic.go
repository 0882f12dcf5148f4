package tracing

import (
	"context"
	"time"

	"example.com/textile/erp/config"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Tracer wraps the New Relic application. A Tracer without a license key is
// disabled and every method is a no-op.
type Tracer struct {
	app     *newrelic.Application
	enabled bool
}

// NewTracer creates a new tracer
func NewTracer(cfg config.TracingConfig) (*Tracer, error) {
	if cfg.LicenseKey == "" {
		log.Warn().Msg("New Relic license key not provided, tracing will be disabled")
		return &Tracer{}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(cfg.DistribTracing),
		newrelic.ConfigAppLogForwardingEnabled(cfg.LogEnabled),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize New Relic")
	}

	return &Tracer{app: app, enabled: true}, nil
}

// Enabled reports whether transactions are reported
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

// App returns the New Relic application, nil when disabled
func (t *Tracer) App() *newrelic.Application {
	if !t.Enabled() {
		return nil
	}
	return t.app
}

// StartTransaction starts a background transaction and stores it on ctx
func (t *Tracer) StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction) {
	if !t.Enabled() {
		return ctx, nil
	}
	txn := t.app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn
}

// EndTransaction ends txn, noticing err when set
func EndTransaction(txn *newrelic.Transaction, err error) {
	if txn == nil {
		return
	}
	if err != nil {
		txn.NoticeError(err)
	}
	txn.End()
}

// StartSegment starts a segment on the transaction carried by ctx. The
// returned function ends it; it is safe to call without a transaction.
func StartSegment(ctx context.Context, name string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	seg := txn.StartSegment(name)
	return seg.End
}

// AddAttribute adds an attribute to the transaction carried by ctx
func AddAttribute(ctx context.Context, key string, value interface{}) {
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute(key, value)
	}
}

// Close flushes pending data
func (t *Tracer) Close() {
	if !t.Enabled() {
		return
	}
	t.app.Shutdown(10 * time.Second)
	log.Info().Msg("New Relic tracer shutdown")
}
