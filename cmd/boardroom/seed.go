package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/config"
	"github.com/BaSui01/boardroom/prompt"
	"github.com/BaSui01/boardroom/store"
	"github.com/BaSui01/boardroom/types"
)

// runSeed populates the database with a demo roster and meeting so a
// fresh install has something to talk to.
func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync() //nolint:errcheck

	db, err := store.Open(store.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	s := store.NewGorm(db, store.NewEventBus(logger), logger)
	if err := s.AutoMigrate(); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seeds := []store.PersonaCreate{
		{
			Name:        "Ada",
			Role:        "Staff Engineer",
			Personality: "Pragmatic and direct. Prefers small reversible changes and asks for data before committing to a plan.",
			Expertise:   []string{"distributed systems", "Go", "incident response"},
			Provider:    types.ProviderOpenAI,
			Model:       "gpt-4o-mini",
		},
		{
			Name:        "Bo",
			Role:        "Product Manager",
			Personality: "Customer-obsessed and optimistic. Frames every discussion around user impact and shipping dates.",
			Expertise:   []string{"roadmapping", "user research"},
			Provider:    types.ProviderAnthropic,
			Model:       "claude-sonnet-4-0",
		},
	}

	personaIDs := make([]string, 0, len(seeds))
	for _, in := range seeds {
		in.SystemPrompt = prompt.Synthesize(types.Persona{
			Name:        in.Name,
			Role:        in.Role,
			Personality: in.Personality,
			Expertise:   in.Expertise,
		})
		p, err := s.CreatePersona(ctx, in)
		if err != nil {
			logger.Fatal("failed to create persona", zap.String("name", in.Name), zap.Error(err))
		}
		personaIDs = append(personaIDs, p.ID)
		logger.Info("created persona",
			zap.String("id", p.ID),
			zap.String("name", p.Name),
			zap.String("provider", string(p.Provider)),
			zap.String("model", p.Model),
		)
	}

	m, err := s.CreateMeeting(ctx, store.MeetingCreate{
		Title:       "Q3 Launch Planning",
		Description: "Scope and schedule for the Q3 product launch.",
		PersonaIDs:  personaIDs,
	})
	if err != nil {
		logger.Fatal("failed to create meeting", zap.Error(err))
	}
	logger.Info("created meeting", zap.String("id", m.ID), zap.String("title", m.Title))

	fmt.Printf("Seeded %d personas and meeting %s\n", len(personaIDs), m.ID)
}
