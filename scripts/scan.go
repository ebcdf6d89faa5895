//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/specvital/jvmtest/pkg/config"
	"github.com/specvital/jvmtest/pkg/discovery"
	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/parser"

	_ "github.com/specvital/jvmtest/pkg/strategies/all"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/scan.go <project-dir>\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	idx, result, err := parser.Load(ctx, cfg.Root, cfg.LoadOptions()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load error: %v\n", err)
		os.Exit(1)
	}

	d := discovery.New()
	d.AddProject(cfg.Name, idx)
	forest := d.Discover(ctx, discovery.Project(cfg.Name))

	output := map[string]interface{}{
		"project":     cfg.Name,
		"filesParsed": result.Stats.FilesParsed,
		"filesFailed": result.Stats.FilesFailed,
		"types":       result.Stats.TypesIndexed,
		"testCount":   domain.CountMethods(forest),
		"duration":    result.Stats.Duration.String(),
		"frameworks":  countFrameworks(forest),
	}
	json.NewEncoder(os.Stdout).Encode(output)
}

func countFrameworks(forest []*domain.TestItem) map[string]int {
	counts := make(map[string]int)
	domain.Walk(forest, func(t *domain.TestItem) bool {
		if t.Level == domain.LevelMethod {
			counts[string(t.Framework)]++
		}
		return true
	})
	return counts
}
