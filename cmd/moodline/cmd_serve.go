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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/moodline/internal/delivery"
	"github.com/user/moodline/internal/insight"
	"github.com/user/moodline/internal/scheduler"
	"github.com/user/moodline/internal/server"
	"github.com/user/moodline/internal/store"
	"github.com/user/moodline/internal/timeline"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the moodline daemon",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "moodline.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	for _, dir := range []string{cfg.DataDir, cfg.Records.ResultsDir, cfg.Records.AudioDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Stores
	audio := store.NewAudioStore(cfg.Records.AudioDir)
	records := store.NewRecordStore(cfg.Records.ResultsDir)
	assembler := timeline.New(timelineOptions(cfg))

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("moodline started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"results_dir", cfg.Records.ResultsDir,
		"audio_dir", cfg.Records.AudioDir,
		"llm_models", cfg.LLM.Models,
		"pid_file", pidPath,
	)

	deliveryReg, err := newDeliveryRegistry(cfg)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		slog.Warn("telegram delivery disabled (no token)")
	}

	// Scheduler: one job, the daily insight
	if cfg.Insight.Schedule != "" {
		sched := scheduler.New()
		err := sched.Add(scheduler.Job{
			Name:     "daily-insight",
			Schedule: cfg.Insight.Schedule,
			Run: func() {
				runScheduledInsight(ctx, records, assembler, gen, deliveryReg, cfg.Insight.Deliver)
			},
		})
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
		slog.Info("scheduler started", "schedule", cfg.Insight.Schedule, "deliver", cfg.Insight.Deliver)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Enabled {
		srv := server.NewServer(audio, records, assembler, gen)
		g.Go(func() error {
			slog.Info("http server started", "listen", cfg.HTTP.Listen)
			return server.ListenAndServe(gctx, cfg.HTTP.Listen, srv)
		})
	}

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("shutting down", "signal", sig)
			cancel()
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	return g.Wait()
}

// runScheduledInsight generates the day's insight and pushes it to the
// configured delivery target.
func runScheduledInsight(ctx context.Context, records *store.RecordStore, assembler *timeline.Assembler, gen *insight.Generator, reg *delivery.Registry, target string) {
	day := time.Now()
	recs, err := records.ForDay(day)
	if err != nil {
		slog.Error("scheduled insight: load records failed", "error", err)
		return
	}
	result := gen.Generate(ctx, assembler.Assemble(recs, day))
	if result.Failed() {
		slog.Warn("scheduled insight degraded", "id", result.ID, "error", result.Error)
		return
	}
	if target == "" {
		target = "stdout:"
	}
	if err := reg.Deliver(target, result); err != nil {
		slog.Error("insight delivery failed", "target", target, "error", err)
		return
	}
	slog.Info("insight delivered", "id", result.ID, "model", result.Model, "target", target)
}
