package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"browser-bench/internal/di"
	"browser-bench/internal/infrastructure/config"
	"browser-bench/internal/infrastructure/dataset"
	"browser-bench/internal/infrastructure/env"
	"browser-bench/internal/usecase/coordinator"
	"browser-bench/internal/usecase/judge"
)

func main() {
	envService := env.NewEnvService()

	maxConcurrent := flag.Int("max-concurrent", envService.GetInt("MAX_CONCURRENT", coordinator.DefaultMaxConcurrent), "number of tasks run at once")
	dataPath := flag.String("data", envService.GetWithDefault("BENCH_DATA", "data/WebVoyager_data.jsonl"), "task set (JSON lines)")
	excludePath := flag.String("exclude", envService.GetWithDefault("BENCH_EXCLUDE", "data/WebVoyagerImpossibleTasks.json"), "exclusion list, optional")
	resultsDir := flag.String("results", envService.GetWithDefault("BENCH_RESULTS", "results/examples-browser-use"), "results directory")
	endpointsPath := flag.String("endpoints", envService.Get("BENCH_ENDPOINTS"), "endpoint YAML file; built-in Azure endpoints when empty")
	maxSteps := flag.Int("max-steps", envService.GetInt("MAX_STEPS", 30), "agent step ceiling per task")
	seed := flag.Int64("seed", int64(envService.GetInt("BENCH_SEED", 42)), "task shuffle seed")
	headless := flag.Bool("headless", envService.GetBool("BROWSER_HEADLESS", true), "run browsers headless")
	statusAddr := flag.String("status-addr", envService.Get("STATUS_ADDR"), "status server address, disabled when empty")
	flag.Parse()

	var endpoints []config.EndpointConfig
	if *endpointsPath != "" {
		loaded, err := config.LoadEndpoints(*endpointsPath)
		if err != nil {
			log.Fatalf("Failed to load endpoints: %v", err)
		}
		endpoints = loaded
	} else {
		endpoints = config.DefaultEndpoints(envService.Get)
	}

	tasks, err := dataset.Load(dataset.Options{
		TasksPath:     *dataPath,
		ExclusionPath: *excludePath,
		Seed:          *seed,
	})
	if err != nil {
		log.Fatalf("Failed to load tasks: %v", err)
	}

	container, err := di.NewContainer(di.Config{
		Endpoints:     endpoints,
		ResultsDir:    *resultsDir,
		MaxConcurrent: *maxConcurrent,
		MaxSteps:      *maxSteps,
		Headless:      *headless,
		BrowserBin:    envService.Get("BROWSER_BIN"),
		StatusAddr:    *statusAddr,
		Out:           os.Stdout,
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if container.Status != nil {
		go func() {
			if err := container.Status.Serve(ctx); err != nil {
				container.Logger.Error("Status server stopped", "error", err)
			}
		}()
	}

	container.Logger.Info("Run started", "tasks", len(tasks), "max_concurrent", *maxConcurrent, "results", *resultsDir)
	fmt.Printf("Running %d tasks with %d workers, results in %s\n", len(tasks), *maxConcurrent, *resultsDir)

	report, err := container.Coordinator.Run(ctx, tasks)
	if report != nil {
		for id, fault := range report.Faults {
			fmt.Printf("Task %s faulted: %v\n", id, fault)
		}
	}
	switch {
	case errors.Is(err, judge.ErrFatal):
		container.Logger.Error("Run aborted", "error", err)
		fmt.Printf("\nRun aborted: %v\n", err)
		container.Close()
		os.Exit(2)
	case err != nil:
		container.Logger.Error("Run interrupted", "error", err)
		fmt.Printf("\nRun interrupted: %v\n", err)
		container.Close()
		os.Exit(1)
	}

	container.Logger.Info("Run finished", "success_rate", report.Snapshot.SuccessRate())
}
