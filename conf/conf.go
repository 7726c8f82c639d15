package conf

import (
	"fmt"
	"time"

	"github.com/quarrydb/quarry/errors"
)

const (
	DefaultBatchRowLimit         = 256
	DefaultResultCacheMaxEntries = 4096
	DefaultRequestTimeout        = 30 * time.Second
	DefaultStartupEndpointPath   = "/started"
	DefaultReadyEndpointPath     = "/ready"
	DefaultLiveEndpointPath      = "/live"
)

type Config struct {
	NodeID                  int           `json:"node_id,omitempty"`
	DataDir                 string        `json:"data_dir,omitempty"`
	TestServer              bool          `json:"test_server,omitempty"`
	BatchRowLimit           int           `json:"batch_row_limit,omitempty"`
	RequestTimeout          time.Duration `json:"request_timeout,omitempty"`
	EnableResultCache       bool          `json:"enable_result_cache,omitempty"`
	ResultCacheMaxEntries   int           `json:"result_cache_max_entries,omitempty"`
	EnableMetrics           bool          `json:"enable_metrics,omitempty"`
	MetricsHTTPListenAddr   string        `json:"metrics_http_listen_addr,omitempty"`
	EnableLifecycleEndpoint bool          `json:"enable_lifecycle_endpoint,omitempty"`
	LifeCycleListenAddress  string        `json:"lifecycle_listen_address,omitempty"`
	StartupEndpointPath     string        `json:"startup_endpoint_path,omitempty"`
	ReadyEndpointPath       string        `json:"ready_endpoint_path,omitempty"`
	LiveEndpointPath        string        `json:"live_endpoint_path,omitempty"`
	EnableFailureInjector   bool          `json:"enable_failure_injector,omitempty"`
	Debug                   bool          `json:"debug,omitempty"`
}

func (c *Config) Validate() error { //nolint:gocyclo
	if c.NodeID < 0 {
		return errors.NewInvalidConfigurationError("NodeID must be >= 0")
	}
	if c.BatchRowLimit < 1 {
		return errors.NewInvalidConfigurationError("BatchRowLimit must be >= 1")
	}
	if c.RequestTimeout < 1*time.Millisecond {
		return errors.NewInvalidConfigurationError(fmt.Sprintf("RequestTimeout must be >= %d", 1*time.Millisecond))
	}
	if c.EnableResultCache && c.ResultCacheMaxEntries < 1 {
		return errors.NewInvalidConfigurationError("ResultCacheMaxEntries must be >= 1")
	}
	if c.EnableLifecycleEndpoint {
		if c.LifeCycleListenAddress == "" {
			return errors.NewInvalidConfigurationError("LifeCycleListenAddress must be specified")
		}
		if c.StartupEndpointPath == "" {
			return errors.NewInvalidConfigurationError("StartupEndpointPath must be specified")
		}
		if c.ReadyEndpointPath == "" {
			return errors.NewInvalidConfigurationError("ReadyEndpointPath must be specified")
		}
		if c.LiveEndpointPath == "" {
			return errors.NewInvalidConfigurationError("LiveEndpointPath must be specified")
		}
	}
	if !c.TestServer {
		if c.DataDir == "" {
			return errors.NewInvalidConfigurationError("DataDir must be specified")
		}
	}
	return nil
}

func NewDefaultConfig() *Config {
	return &Config{
		BatchRowLimit:         DefaultBatchRowLimit,
		RequestTimeout:        DefaultRequestTimeout,
		ResultCacheMaxEntries: DefaultResultCacheMaxEntries,
		StartupEndpointPath:   DefaultStartupEndpointPath,
		ReadyEndpointPath:     DefaultReadyEndpointPath,
		LiveEndpointPath:      DefaultLiveEndpointPath,
	}
}

func NewTestConfig() *Config {
	return &Config{
		NodeID:                0,
		TestServer:            true,
		BatchRowLimit:         DefaultBatchRowLimit,
		RequestTimeout:        DefaultRequestTimeout,
		EnableResultCache:     true,
		ResultCacheMaxEntries: DefaultResultCacheMaxEntries,
		StartupEndpointPath:   DefaultStartupEndpointPath,
		ReadyEndpointPath:     DefaultReadyEndpointPath,
		LiveEndpointPath:      DefaultLiveEndpointPath,
	}
}
