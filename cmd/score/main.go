package main

import (
	"context"
	"log"
	"os"

	"browser-bench/internal/infrastructure/storage/filestore"
	"browser-bench/internal/usecase/scoring"
)

func main() {
	root := "results"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	open := func(dir string) (scoring.ResultReader, error) {
		return filestore.Open(dir)
	}

	scores, err := scoring.TallyFolders(context.Background(), root, open)
	if err != nil {
		log.Fatalf("Scoring failed: %v", err)
	}

	scoring.Report(os.Stdout, scores)
}
