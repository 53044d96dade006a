package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dossier"
	"github.com/aretw0/dossier/internal/logging"
	"github.com/aretw0/dossier/pkg/adapters/memory"
	"github.com/aretw0/dossier/pkg/adapters/provider"
	"github.com/aretw0/dossier/pkg/adapters/provider/gemini"
	redisAdapter "github.com/aretw0/dossier/pkg/adapters/redis"
	"github.com/aretw0/dossier/pkg/observability"
	"github.com/aretw0/dossier/pkg/ports"
	"github.com/aretw0/dossier/pkg/prompt"
)

// buildEngine assembles the engine from CLI flags: Redis or in-memory
// storage, Gemini or a scripted provider, and optional template
// overrides. The returned cleanup closes the store when needed.
func buildEngine(cmd *cobra.Command, metrics *observability.Metrics) (*dossier.Engine, func(), error) {
	logger := logging.New(logging.ParseLevel(flagString(cmd, "log-level")))
	cleanup := func() {}

	var store ports.WorkspaceStore
	if addr := flagString(cmd, "redis"); addr != "" {
		redisStore := redisAdapter.New(addr, os.Getenv("DOSSIER_REDIS_PASSWORD"), 0)
		store = redisStore
		cleanup = func() {
			if err := redisStore.Close(); err != nil {
				logger.Warn("failed to close redis store", "err", err)
			}
		}
	} else {
		logger.Warn("using in-memory storage; workspaces will not survive this process")
		store = memory.NewStore()
	}

	reasoner, err := buildProvider(cmd)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	registry := prompt.NewRegistry()
	if path := flagString(cmd, "templates"); path != "" {
		if err := registry.LoadFile(path); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	engine, err := dossier.New(store, reasoner,
		dossier.WithLogger(logger),
		dossier.WithTemplates(registry),
		dossier.WithMetrics(metrics),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

// buildProvider picks the reasoning backend: a scripted response file
// for demos, otherwise Gemini via GEMINI_API_KEY.
func buildProvider(cmd *cobra.Command) (ports.ReasoningProvider, error) {
	if path := flagString(cmd, "script"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script file: %w", err)
		}
		var responses []json.RawMessage
		if err := json.Unmarshal(data, &responses); err != nil {
			return nil, fmt.Errorf("script file must be a JSON array of responses: %w", err)
		}
		return provider.NewScripted(responses...), nil
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set (or pass --script for demo mode)")
	}
	var opts []gemini.Option
	if model := flagString(cmd, "model"); model != "" {
		opts = append(opts, gemini.WithModel(model))
	}
	return gemini.New(context.Background(), apiKey, opts...)
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
