package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/specvital/jvmtest/pkg/config"
	"github.com/specvital/jvmtest/pkg/discovery"
	"github.com/specvital/jvmtest/pkg/parser"
)

type loadedProject struct {
	config *config.Config
	index  *parser.Index
}

// openProject reads the project file of dir and indexes its sources.
func openProject(ctx context.Context, dir string) (*loadedProject, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	opts := append(cfg.LoadOptions(), parser.WithLogger(slog.Default()))
	idx, result, err := parser.Load(ctx, cfg.Root, opts...)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", cfg.Name, err)
	}
	for _, e := range result.Errors {
		slog.Warn("source not indexed", "project", cfg.Name, "error", e.Error())
	}
	slog.Debug("project loaded",
		"project", cfg.Name,
		"root", cfg.Root,
		"files", result.Stats.FilesParsed,
		"types", result.Stats.TypesIndexed,
		"duration", result.Stats.Duration)

	return &loadedProject{config: cfg, index: idx}, nil
}

func openProjects(ctx context.Context, dirs []string) (*discovery.Discoverer, []*loadedProject, error) {
	d := discovery.New()
	projects := make([]*loadedProject, 0, len(dirs))
	for _, dir := range dirs {
		p, err := openProject(ctx, dir)
		if err != nil {
			return nil, nil, err
		}
		d.AddProject(p.config.Name, p.index)
		projects = append(projects, p)
	}
	return d, projects, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
