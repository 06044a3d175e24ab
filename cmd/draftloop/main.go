// Command draftloop runs a multi-agent report writing session and
// scores its output against a single-agent baseline.
//
// The pipeline plans, researches, drafts, critiques, and revises until
// the critic approves the draft or the revision ceiling is reached.
// An LLM judge then scores the pipeline's report against a one-shot
// answer to the same task.
//
// Usage:
//
//	draftloop -task "Write a report on X."
//	draftloop -config config.yaml -metrics-addr :9090
//	draftloop -offline                      # canned demo, no API key
//	draftloop -store sqlite -dsn sessions.db -checkpoint after-run
//	draftloop -store sqlite -dsn sessions.db -resume after-run
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	yaml "go.yaml.in/yaml/v2"

	"github.com/dshills/draftloop-go/flow"
	"github.com/dshills/draftloop-go/flow/emit"
	"github.com/dshills/draftloop-go/flow/model"
	"github.com/dshills/draftloop-go/flow/model/anthropic"
	"github.com/dshills/draftloop-go/flow/model/google"
	"github.com/dshills/draftloop-go/flow/model/openai"
	"github.com/dshills/draftloop-go/flow/store"
	"github.com/dshills/draftloop-go/workflow"
)

// settings is the merged runtime configuration: defaults, then the
// YAML config file, then explicit flags.
type settings struct {
	Task        string
	Provider    string
	Model       string
	Temperature *float64

	StoreDriver string
	StoreDSN    string

	MetricsAddr string
	Trace       bool
	Events      bool
	JSONEvents  bool

	MaxSteps    int
	NodeTimeout time.Duration
	RunBudget   time.Duration

	ResearchSources []string

	RunID      string
	Checkpoint string
	Resume     string
	StartNode  string
}

// fileConfig is the YAML layout of -config.
type fileConfig struct {
	Task        string   `yaml:"task"`
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`

	Store struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`

	Research struct {
		Sources []string `yaml:"sources"`
	} `yaml:"research"`

	Observability struct {
		MetricsAddr string `yaml:"metrics_addr"`
		Trace       bool   `yaml:"trace"`
		Events      bool   `yaml:"events"`
		JSONEvents  bool   `yaml:"json_events"`
	} `yaml:"observability"`

	Limits struct {
		MaxSteps    int    `yaml:"max_steps"`
		NodeTimeout string `yaml:"node_timeout"`
		RunBudget   string `yaml:"run_budget"`
	} `yaml:"limits"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config fileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return &config, nil
}

// apply folds the config file into the settings.
func (s *settings) apply(cfg *fileConfig) error {
	if cfg.Task != "" {
		s.Task = cfg.Task
	}
	if cfg.Provider != "" {
		s.Provider = cfg.Provider
	}
	if cfg.Model != "" {
		s.Model = cfg.Model
	}
	if cfg.Temperature != nil {
		s.Temperature = cfg.Temperature
	}
	if cfg.Store.Driver != "" {
		s.StoreDriver = cfg.Store.Driver
	}
	if cfg.Store.DSN != "" {
		s.StoreDSN = cfg.Store.DSN
	}
	if len(cfg.Research.Sources) > 0 {
		s.ResearchSources = cfg.Research.Sources
	}
	if cfg.Observability.MetricsAddr != "" {
		s.MetricsAddr = cfg.Observability.MetricsAddr
	}
	if cfg.Observability.Trace {
		s.Trace = true
	}
	if cfg.Observability.Events {
		s.Events = true
	}
	if cfg.Observability.JSONEvents {
		s.JSONEvents = true
	}
	if cfg.Limits.MaxSteps > 0 {
		s.MaxSteps = cfg.Limits.MaxSteps
	}
	if cfg.Limits.NodeTimeout != "" {
		d, err := time.ParseDuration(cfg.Limits.NodeTimeout)
		if err != nil {
			return fmt.Errorf("invalid node_timeout: %w", err)
		}
		s.NodeTimeout = d
	}
	if cfg.Limits.RunBudget != "" {
		d, err := time.ParseDuration(cfg.Limits.RunBudget)
		if err != nil {
			return fmt.Errorf("invalid run_budget: %w", err)
		}
		s.RunBudget = d
	}
	return nil
}

// providerEnvVars maps providers to the environment variable holding
// their API key.
var providerEnvVars = map[string]string{
	"google":    "GOOGLE_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// buildModel constructs the chat model for the configured provider and
// reports the model name used for cost attribution.
func buildModel(s *settings) (model.ChatModel, string, error) {
	switch s.Provider {
	case "offline":
		return offlineModel(), "offline", nil
	case "google":
		key := os.Getenv(providerEnvVars["google"])
		if key == "" {
			return nil, "", fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		name := s.Model
		if name == "" {
			name = google.DefaultModel
		}
		return google.NewChatModel(key, name), name, nil
	case "openai":
		key := os.Getenv(providerEnvVars["openai"])
		if key == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		name := s.Model
		if name == "" {
			name = openai.DefaultModel
		}
		return openai.NewChatModel(key, name), name, nil
	case "anthropic":
		key := os.Getenv(providerEnvVars["anthropic"])
		if key == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		name := s.Model
		if name == "" {
			name = anthropic.DefaultModel
		}
		return anthropic.NewChatModel(key, name), name, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q (google, openai, anthropic, offline)", s.Provider)
	}
}

// buildStore constructs the session store for the configured driver.
func buildStore(s *settings) (store.Store[workflow.SessionState], func(), error) {
	noop := func() {}

	switch s.StoreDriver {
	case "", "memory":
		return store.NewMemStore[workflow.SessionState](), noop, nil
	case "sqlite":
		dsn := s.StoreDSN
		if dsn == "" {
			dsn = "draftloop.db"
		}
		st, err := store.NewSQLiteStore[workflow.SessionState](dsn)
		if err != nil {
			return nil, noop, err
		}
		return st, func() { _ = st.Close() }, nil
	case "mysql":
		if s.StoreDSN == "" {
			return nil, noop, fmt.Errorf("mysql store requires -dsn")
		}
		st, err := store.NewMySQLStore[workflow.SessionState](s.StoreDSN)
		if err != nil {
			return nil, noop, err
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q (memory, sqlite, mysql)", s.StoreDriver)
	}
}

// serveMetrics exposes the registry for Prometheus scraping.
func serveMetrics(addr string, registry *prometheus.Registry) {
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		log.Printf("metrics listening on %s/metrics", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("metrics server error: %v", err)
		}
	}()
}

func main() {
	s := settings{
		Provider:  "google",
		StartNode: workflow.NodeCritic,
	}

	configPath := flag.String("config", "", "path to YAML config file")
	flag.StringVar(&s.Task, "task", "", "task for the report (default: built-in demo task)")
	flag.StringVar(&s.Provider, "provider", s.Provider, "model provider: google, openai, anthropic, offline")
	flag.StringVar(&s.Model, "model", "", "model name (default: provider default)")
	offline := flag.Bool("offline", false, "run the canned demo without API calls")
	flag.StringVar(&s.StoreDriver, "store", "", "session store: memory, sqlite, mysql")
	flag.StringVar(&s.StoreDSN, "dsn", "", "store DSN (sqlite path or MySQL DSN)")
	flag.StringVar(&s.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flag.BoolVar(&s.Trace, "trace", false, "record OpenTelemetry spans for engine events")
	flag.BoolVar(&s.Events, "events", false, "log engine events to stderr")
	flag.BoolVar(&s.JSONEvents, "json-events", false, "log engine events as JSON lines")
	flag.StringVar(&s.RunID, "run-id", "", "run ID (default: random UUID)")
	flag.StringVar(&s.Checkpoint, "checkpoint", "", "save a checkpoint under this ID after the session")
	flag.StringVar(&s.Resume, "resume", "", "resume from this checkpoint ID instead of starting fresh")
	flag.StringVar(&s.StartNode, "start-node", s.StartNode, "agent to resume at")
	flag.Parse()

	if *configPath != "" {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if err := s.apply(cfg); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	// Flags override the config file for the values they share.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "task":
			s.Task = f.Value.String()
		case "provider":
			s.Provider = f.Value.String()
		case "model":
			s.Model = f.Value.String()
		case "store":
			s.StoreDriver = f.Value.String()
		case "dsn":
			s.StoreDSN = f.Value.String()
		case "metrics-addr":
			s.MetricsAddr = f.Value.String()
		}
	})
	if *offline {
		s.Provider = "offline"
	}
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}

	chatModel, modelName, err := buildModel(&s)
	if err != nil {
		fmt.Printf("Error initializing the model: %v\n", err)
		if envVar, ok := providerEnvVars[s.Provider]; ok {
			fmt.Printf("Please ensure your %s is set correctly.\n", envVar)
		}
		os.Exit(1)
	}

	sessionStore, closeStore, err := buildStore(&s)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	var metrics *flow.PrometheusMetrics
	if s.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		metrics = flow.NewPrometheusMetrics(registry)
		serveMetrics(s.MetricsAddr, registry)
	}

	var emitters []emit.Emitter
	if s.Events || s.JSONEvents {
		emitters = append(emitters, emit.NewLogEmitter(os.Stderr, s.JSONEvents))
	}
	if s.Trace {
		tracer, shutdown := setupTracing()
		defer shutdown()
		emitters = append(emitters, emit.NewOTelEmitter(tracer))
	}
	var emitter emit.Emitter
	if len(emitters) > 0 {
		emitter = emit.NewMultiEmitter(emitters...)
	}

	costs := flow.NewCostTracker(s.RunID, "USD")

	pipeline, err := workflow.NewPipeline(workflow.Config{
		Model:           chatModel,
		ModelName:       modelName,
		Temperature:     s.Temperature,
		Store:           sessionStore,
		Emitter:         emitter,
		Costs:           costs,
		Metrics:         metrics,
		ResearchSources: s.ResearchSources,
		MaxSteps:        s.MaxSteps,
		NodeTimeout:     s.NodeTimeout,
		RunBudget:       s.RunBudget,
	})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	ctx := context.Background()

	if s.Resume != "" {
		final, err := pipeline.Resume(ctx, s.Resume, s.RunID, s.StartNode)
		if err != nil {
			log.Fatalf("resume: %v", err)
		}
		fmt.Printf("\n--- RESUMED SESSION RESULT (revision %d) ---\n", final.RevisionNumber)
		fmt.Println(final.Draft)
		fmt.Printf("\n%s\n", costs.String())
		return
	}

	comparison, err := pipeline.RunComparison(ctx, s.RunID, s.Task)
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	workflow.RenderComparison(os.Stdout, comparison)

	if s.Checkpoint != "" {
		if err := pipeline.SaveCheckpoint(ctx, s.RunID, s.Checkpoint); err != nil {
			log.Fatalf("checkpoint: %v", err)
		}
		log.Printf("checkpoint %q saved for run %s", s.Checkpoint, s.RunID)
	}
}
