package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calder/delegator/internal/calibration"
	"github.com/calder/delegator/internal/confidence"
	"github.com/calder/delegator/internal/config"
	"github.com/calder/delegator/internal/filelock"
	"github.com/calder/delegator/internal/gating"
	"github.com/calder/delegator/internal/logger"
	"github.com/calder/delegator/internal/models"
	"github.com/calder/delegator/internal/repocontext"
	"github.com/calder/delegator/internal/schema"
	"github.com/calder/delegator/internal/taskfile"
	"github.com/calder/delegator/internal/worker"
)

type runFlags struct {
	taskFile   string
	category   string
	payload    string
	risk       string
	configPath string
	workersDir string
	outPath    string
	quiet      bool
}

func newRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a task and print the gated report",
		Long: `Run submits one task through a delegation session. The task comes either
from a markdown task file (--task-file) or from --category and --payload
flags. The rendered report goes to stdout; --out additionally writes the
report as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.taskFile, "task-file", "f", "", "markdown task file to submit")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "task category (research, security, codegen, docs)")
	cmd.Flags().StringVarP(&flags.payload, "payload", "p", "", "task payload text")
	cmd.Flags().StringVar(&flags.risk, "risk", "", "risk class hint (none, low, high)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "config file path (default: <home>/config.yaml)")
	cmd.Flags().StringVar(&flags.workersDir, "workers-dir", "", "worker definitions directory (default: <home>/workers)")
	cmd.Flags().StringVarP(&flags.outPath, "out", "o", "", "write the report as JSON to this path")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}

func runTask(flags *runFlags) error {
	home, err := config.DelegatorHome()
	if err != nil {
		return err
	}

	configPath := flags.configPath
	if configPath == "" {
		configPath = filepath.Join(home, "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	task, err := buildTask(flags)
	if err != nil {
		return err
	}

	validator := schema.NewValidator()
	if cfg.ContractOverrides != "" {
		contracts := schema.DefaultContracts()
		if err := schema.LoadOverrides(cfg.ContractOverrides, contracts); err != nil {
			return err
		}
		validator = schema.NewValidatorWithContracts(contracts)
	}

	registry := worker.NewRegistry()
	workersDir := flags.workersDir
	if workersDir == "" {
		workersDir = cfg.WorkersDir
	}
	if workersDir == "" {
		workersDir = filepath.Join(home, "workers")
	}
	if _, err := worker.LoadInto(workersDir, registry, validator); err != nil {
		return err
	}

	evaluator := confidence.NewEvaluator()
	evaluator.CriticalPenalty = cfg.Gating.CriticalPenalty

	var calStore *calibration.Store
	if cfg.Calibration.Enabled {
		calStore, err = openCalibrationStore(cfg, home)
		if err != nil {
			return err
		}
		defer calStore.Close()
		evaluator.Familiarity = calStore
		evaluator.MinFamiliarRuns = cfg.Calibration.MinFamiliarRuns
	}

	provider := repocontext.NewProvider(cfg.RepoDir, nil)

	loggers := gating.MultiLogger{}
	if !flags.quiet {
		loggers = append(loggers, logger.NewConsoleLogger(os.Stderr, cfg.LogLevel))
	}
	logDir := cfg.LogDir
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(home, "logs")
	}
	fileLogger, err := logger.NewFileLogger(logDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer fileLogger.Close()
	loggers = append(loggers, fileLogger)

	engine, err := gating.NewEngine(registry, validator, evaluator, provider, gating.Options{
		ProceedThreshold: cfg.Gating.ProceedThreshold,
		PresentThreshold: cfg.Gating.PresentThreshold,
		EscalationCap:    cfg.Gating.EscalationCap,
		WorkerTimeout:    cfg.WorkerTimeout,
		MaxConcurrency:   cfg.MaxConcurrency,
	}, loggers)
	if err != nil {
		return err
	}
	if calStore != nil {
		engine.SetCalibration(calibration.Recorder{Store: calStore})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	outcome, err := engine.Submit(ctx, *task)
	if err != nil {
		return err
	}

	renderReport(os.Stdout, outcome)

	if flags.outPath != "" {
		data, err := json.MarshalIndent(outcome.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := filelock.GuardedWrite(flags.outPath, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// openCalibrationStore opens the calibration database and applies the
// configured retention window. Pruning is best-effort: a failed prune never
// blocks the run, matching how recording failures are treated.
func openCalibrationStore(cfg *config.Config, home string) (*calibration.Store, error) {
	dbPath := cfg.Calibration.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(home, filepath.Base(dbPath))
	}
	store, err := calibration.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	_, _ = store.Prune(context.Background(), cfg.Calibration.KeepDays)
	return store, nil
}

// buildTask assembles the task from a task file or flags. A task file wins
// over flags.
func buildTask(flags *runFlags) (*models.Task, error) {
	if flags.taskFile != "" {
		return taskfile.Parse(flags.taskFile)
	}
	if flags.category == "" || flags.payload == "" {
		return nil, fmt.Errorf("either --task-file or both --category and --payload are required")
	}
	task := &models.Task{
		ID:        models.NewTaskID(),
		Category:  models.Category(flags.category),
		Payload:   flags.payload,
		RiskClass: models.RiskClass(flags.risk),
	}
	if task.RiskClass == "" {
		task.RiskClass = models.RiskNone
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}
