package testsupport

import (
	"path/filepath"
	"testing"

	"stockist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Site.BaseURL = "https://shop.example"
	cfgVal.Site.ConsumerKey = "ck_test"
	cfgVal.Site.ConsumerSecret = "cs_test"
	cfgVal.Site.Username = "admin"
	cfgVal.Site.AppPassword = "test-app-password"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Upload.ItemDelaySeconds = 0
	cfgVal.Upload.WorkerStartDelay = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBaseURL points the test config at a different catalog endpoint,
// typically an httptest server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Site.BaseURL = url
	}
}

// WithWorkers sets the worker count and concurrency toggle.
func WithWorkers(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.Concurrent = count > 1
		b.cfg.Upload.MaxWorkers = count
	}
}
