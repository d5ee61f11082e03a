package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"browser-bench/internal/di"
	"browser-bench/internal/domain/entity"
	"browser-bench/internal/infrastructure/config"
	"browser-bench/internal/infrastructure/env"
	"browser-bench/internal/infrastructure/logger"
	"browser-bench/internal/infrastructure/metrics"
	"browser-bench/internal/infrastructure/storage/filestore"
	"browser-bench/internal/usecase/judge"
)

func main() {
	envService := env.NewEnvService()

	endpointsPath := flag.String("endpoints", envService.Get("BENCH_ENDPOINTS"), "endpoint YAML file; built-in Azure endpoints when empty")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rejudge [--endpoints file] <task_dir>")
		os.Exit(2)
	}

	taskDir, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		log.Fatalf("Bad task directory: %v", err)
	}
	store, err := filestore.Open(filepath.Dir(taskDir))
	if err != nil {
		log.Fatalf("Failed to open results: %v", err)
	}
	taskID := filepath.Base(taskDir)

	endpointCfgs := config.DefaultEndpoints(envService.Get)
	if *endpointsPath != "" {
		endpointCfgs, err = config.LoadEndpoints(*endpointsPath)
		if err != nil {
			log.Fatalf("Failed to load endpoints: %v", err)
		}
	}

	appLogger, err := logger.NewLoggerAdapter("rejudge")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	endpoints, err := di.BuildEndpoints(endpointCfgs, appLogger)
	if err != nil {
		log.Fatalf("Failed to build endpoints: %v", err)
	}
	if len(endpoints) == 0 {
		log.Fatal("No endpoints configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := store.Load(ctx, taskID)
	if err != nil {
		log.Fatalf("Failed to load task result: %v", err)
	}
	shots, err := store.LoadScreenshots(ctx, taskID)
	if err != nil {
		log.Fatalf("Failed to load screenshots: %v", err)
	}

	j := judge.New(appLogger.WithField("task_id", taskID), metrics.NewCollector("browser_bench"))
	judgement, err := j.Judge(ctx, endpoints[0].LLM, entity.JudgeInput{
		Instruction: outcome.TaskPrompt,
		FinalAnswer: outcome.FinalAnswer,
		Completed:   outcome.FinalAnswer != entity.NoFinalAnswer,
		Screenshots: shots,
	})
	if err != nil {
		log.Fatalf("Judge failed: %v", err)
	}

	record := entity.EvalRecord{EvalResult: judgement.Verdict, JudgeResponse: judgement.Rationale}
	if err := store.WriteEval(ctx, taskID, record); err != nil {
		log.Fatalf("Failed to write eval result: %v", err)
	}
	fmt.Printf("Task %s: %s (stored %s)\n", taskID, judgement.Verdict, outcome.Success)
}
