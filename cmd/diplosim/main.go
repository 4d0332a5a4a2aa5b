// Command diplosim runs the Statecraft diplomatic NPC simulation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/statecraft/internal/api"
	"github.com/talgya/statecraft/internal/cache"
	"github.com/talgya/statecraft/internal/config"
	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/persistence"
	"github.com/talgya/statecraft/internal/worldgen"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Statecraft — Diplomatic NPC Behavior Engine")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Trait Cache ───────────────────────────────────────────────────
	traitCache := cache.New(cfg.RedisAddr, cfg.CacheTTL)
	if traitCache != nil {
		defer traitCache.Close()
		slog.Info("trait cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		slog.Warn("STATECRAFT_REDIS_ADDR not set — trait cache disabled")
	}

	// ── Load or Generate World ────────────────────────────────────────
	behavior := diplomacy.DefaultConfig()
	seed := cfg.Seed
	var startTick uint64

	if db.HasCountries() {
		slog.Info("found saved world, loading...")

		if tickStr, err := db.GetMeta("last_tick"); err == nil {
			if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
				startTick = t
			}
		}
		if seedStr, err := db.GetMeta("seed"); err == nil {
			if s, err := strconv.ParseInt(seedStr, 10, 64); err == nil {
				seed = s
			}
		}

		slog.Info("world restored", "tick", startTick, "sim_time", engine.SimTime(startTick))
	} else {
		slog.Info("no saved world found, generating...")

		gen := worldgen.DefaultGenConfig()
		gen.Seed = seed
		w := worldgen.Generate(behavior, gen)
		seed = w.Seed

		if err := db.SaveAll(w.Countries, w.Relations); err != nil {
			slog.Error("initial save failed", "error", err)
			os.Exit(1)
		}
		db.SaveMeta("seed", strconv.FormatInt(seed, 10))

		for _, c := range w.Countries {
			slog.Info("country",
				"id", c.ID,
				"name", c.Name,
				"region", c.Region,
				"archetype", diplomacy.ClassifyArchetype(behavior, c.Traits).String(),
			)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	var sampler entropy.Source = entropy.CryptoSource{}
	if seed != 0 {
		sampler = entropy.NewSeeded(seed)
	}

	svc := engine.NewService(db, traitCache, behavior, sampler)
	svc.SetTick(startTick)

	sched := engine.NewScheduler()
	sched.Tick = startTick
	sched.Speed = 1
	sched.Interval = cfg.TickInterval

	ctx := context.Background()
	worldSeed := seed

	// Every tick: sample one relationship transition per country pair slice.
	sched.OnTick = func(tick uint64) {
		svc.SetTick(tick)

		relations, err := db.ListRelations()
		if err != nil || len(relations) == 0 {
			return
		}
		// Round-robin one pair per tick keeps the loop cheap.
		p := relations[int(tick)%len(relations)]
		if _, err := svc.SampleTransition(ctx, p.A, p.B); err != nil {
			slog.Warn("transition sample failed", "pair", p.Key(), "error", err)
		}
	}

	// Every sim-day: evolve metrics along the noise tracks and refresh.
	sched.OnDay = func(tick uint64) {
		countries, err := db.ListCountries()
		if err != nil {
			return
		}
		for _, c := range countries {
			m := worldgen.EvolveMetrics(worldSeed, c, tick)
			if _, err := svc.RefreshTraits(ctx, c.ID, m); err != nil {
				slog.Warn("daily refresh failed", "country", c.ID, "error", err)
			}
		}
		db.SaveMeta("last_tick", strconv.FormatUint(tick, 10))
	}

	// Every sim-week: drift from accumulated experiences, persist events.
	sched.OnWeek = func(tick uint64) {
		countries, err := db.ListCountries()
		if err != nil {
			return
		}
		elapsed := float64(engine.TicksPerSimWeek) / engine.TicksPerSimYear
		for _, c := range countries {
			recordWeeklyExperiences(db, c)
			if _, err := svc.DriftCycle(ctx, c.ID, elapsed); err != nil {
				slog.Warn("drift cycle failed", "country", c.ID, "error", err)
			}
		}

		persistEvents(db, svc)
	}

	sched.OnYear = func(tick uint64) {
		slog.Info("simulation year complete",
			"sim_time", engine.SimTime(tick),
			"transitions", humanize.Comma(svc.Stats.Transitions.Load()),
			"refreshes", humanize.Comma(svc.Stats.Refreshes.Load()),
			"drift_cycles", humanize.Comma(svc.Stats.DriftCycles.Load()),
		)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("STATECRAFT_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Svc:      svc,
		Sched:    sched,
		Port:     cfg.APIPort,
		AdminKey: cfg.AdminKey,
		Workers:  cfg.RefreshWorkers,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		sched.Stop()
	}()

	fmt.Printf("\nStatecraft is live.\nAPI: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", startTick, engine.SimTime(startTick))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	sched.Run()

	// Final flush on shutdown.
	slog.Info("final save...")
	db.SaveMeta("last_tick", strconv.FormatUint(sched.Tick, 10))
	persistEvents(db, svc)

	fmt.Println("Simulation stopped. World state saved.")
}

// recordWeeklyExperiences derives drift experiences from a country's hostile
// and friendly relations so the weekly cycle has something to fold in.
func recordWeeklyExperiences(db *persistence.DB, c *diplomacy.Country) {
	relations, err := db.ListRelations()
	if err != nil {
		return
	}

	for _, p := range relations {
		if p.A != c.ID {
			continue
		}

		var kind diplomacy.ExperienceKind
		switch p.State {
		case diplomacy.StateHostile:
			kind = diplomacy.ExpConflict
		case diplomacy.StateAllied:
			kind = diplomacy.ExpSuccessfulCooperation
		default:
			continue
		}

		exp := diplomacy.Experience{
			ID:         uuid.NewString(),
			CountryID:  c.ID,
			Kind:       kind,
			OccurredAt: time.Now().Unix(),
		}
		if err := db.AddExperience(exp); err != nil {
			slog.Warn("experience record failed", "country", c.ID, "error", err)
		}
	}
}

func persistEvents(db *persistence.DB, svc *engine.Service) {
	drained := svc.DrainEvents()
	if len(drained) == 0 {
		return
	}

	events := make([]persistence.Event, len(drained))
	for i, e := range drained {
		events[i] = persistence.Event{
			Tick:        e.Tick,
			Description: e.Description,
			Category:    e.Category,
		}
	}
	if err := db.SaveEvents(events); err != nil {
		slog.Error("event save failed", "error", err)
	}
}
