package di

import (
	"fmt"
	"io"

	"browser-bench/internal/adapter/tool"
	"browser-bench/internal/application/port/output"
	"browser-bench/internal/application/service"
	"browser-bench/internal/infrastructure/browser/rod"
	"browser-bench/internal/infrastructure/config"
	"browser-bench/internal/infrastructure/console"
	"browser-bench/internal/infrastructure/llm/langchain"
	"browser-bench/internal/infrastructure/llm/openaicompat"
	"browser-bench/internal/infrastructure/llm/throttle"
	"browser-bench/internal/infrastructure/logger"
	"browser-bench/internal/infrastructure/metrics"
	"browser-bench/internal/infrastructure/status"
	"browser-bench/internal/infrastructure/storage/filestore"
	"browser-bench/internal/usecase/agent"
	"browser-bench/internal/usecase/coordinator"
	"browser-bench/internal/usecase/executor"
	"browser-bench/internal/usecase/judge"

	"github.com/google/uuid"
)

const metricsNamespace = "browser_bench"

type Container struct {
	RunID       string
	Logger      output.LoggerPort
	Store       *filestore.Store
	Endpoints   []*output.Endpoint
	Pool        *service.EndpointPool
	Judge       *judge.Judge
	Coordinator *coordinator.Coordinator
	Metrics     *metrics.Collector
	// Status is nil unless a status address was configured.
	Status *status.Server
}

type Config struct {
	Endpoints     []config.EndpointConfig
	ResultsDir    string
	MaxConcurrent int
	MaxSteps      int
	Headless      bool
	BrowserBin    string
	StatusAddr    string
	SummaryEvery  int
	Out           io.Writer
	// Logger overrides the default file logger.
	Logger output.LoggerPort
}

func NewContainer(cfg Config) (*Container, error) {
	runID := uuid.NewString()

	log := cfg.Logger
	if log == nil {
		fileLog, err := logger.NewLoggerAdapter("bench_" + runID[:8])
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		log = fileLog
	}
	log = log.WithField("run_id", runID)

	store, err := filestore.New(cfg.ResultsDir)
	if err != nil {
		log.Close()
		return nil, err
	}

	endpoints, err := BuildEndpoints(cfg.Endpoints, log)
	if err != nil {
		log.Close()
		return nil, err
	}
	pool, err := service.NewEndpointPool(endpoints)
	if err != nil {
		log.Close()
		return nil, err
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.Headless
	browserCfg.Bin = cfg.BrowserBin
	browsers := rod.NewFactory(browserCfg)

	collector := metrics.NewCollector(metricsNamespace)
	j := judge.New(log.WithField("component", "judge"), collector)
	exec := executor.New(agent.NewDriver(tool.NewBrowserToolset), browsers, log, cfg.MaxSteps)

	coord := coordinator.New(
		pool,
		exec,
		j,
		store,
		console.NewReporter(cfg.Out),
		collector,
		log,
		coordinator.Config{
			MaxConcurrent: cfg.MaxConcurrent,
			RunID:         runID,
			SummaryEvery:  cfg.SummaryEvery,
		},
	)

	c := &Container{
		RunID:       runID,
		Logger:      log,
		Store:       store,
		Endpoints:   endpoints,
		Pool:        pool,
		Judge:       j,
		Coordinator: coord,
		Metrics:     collector,
	}
	if cfg.StatusAddr != "" {
		c.Status = status.New(cfg.StatusAddr, runID, coord.Stats, collector.Registry(), log.WithField("component", "status"))
	}
	return c, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}

// BuildEndpoints turns endpoint settings into live backends. Only an unknown
// provider is an error; missing credentials surface on first use.
func BuildEndpoints(cfgs []config.EndpointConfig, log output.LoggerPort) ([]*output.Endpoint, error) {
	endpoints := make([]*output.Endpoint, 0, len(cfgs))
	for _, ep := range cfgs {
		backend, err := NewBackend(ep, log)
		if err != nil {
			return nil, err
		}
		if ep.RPM > 0 {
			backend = throttle.Wrap(backend, ep.RPM)
		}
		if ep.APIKey == "" {
			log.Warn("Endpoint has no API key and will fail when used", "endpoint", ep.Name)
		}
		endpoints = append(endpoints, &output.Endpoint{
			Name:   ep.Name,
			Weight: ep.Weight,
			LLM:    backend,
		})
	}
	return endpoints, nil
}

func NewBackend(ep config.EndpointConfig, log output.LoggerPort) (output.LLMPort, error) {
	switch ep.Provider {
	case config.ProviderAzure, config.ProviderOpenAI, config.ProviderOpenRouter:
		return openaicompat.NewAdapter(openaicompat.Config{
			Name:       ep.Name,
			Provider:   openaicompat.Provider(ep.Provider),
			APIKey:     ep.APIKey,
			BaseURL:    ep.BaseURL,
			Model:      ep.Model,
			APIVersion: ep.APIVersion,
			Logger:     log.WithField("endpoint", ep.Name),
		}), nil
	case config.ProviderAnthropic:
		return langchain.NewAnthropicAdapter(langchain.Config{
			Name:    ep.Name,
			APIKey:  ep.APIKey,
			BaseURL: ep.BaseURL,
			Model:   ep.Model,
		}), nil
	default:
		return nil, fmt.Errorf("endpoint %s: unknown provider %q", ep.Name, ep.Provider)
	}
}
