package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manpen/stride/internal/display"
	"github.com/manpen/stride/internal/instanceset"
	"github.com/manpen/stride/internal/rundir"
	"github.com/manpen/stride/internal/runstats"
	"github.com/manpen/stride/internal/scheduler"
	"github.com/manpen/stride/internal/storage"
	"github.com/manpen/stride/internal/summary"
	"github.com/manpen/stride/internal/uploader"
)

const logsDirName = "stride-logs"

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] -- [solver args]",
	Short: "Run solver and postprocess solution",
	Long: `Run executes the given solver against every instance, enforcing a soft
timeout followed by a grace period before SIGKILL, checks and extracts
each solution, and writes a per-run NDJSON summary.

Example:
  stride run -i instances/*.gr -s ./solver -t 30 -g 5 -p 4 -- --verbose`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringArrayP("instances", "i", nil, "instance files, list files (.lst), or globs")
	flags.StringP("solver", "s", "", "solver program to execute")
	flags.Float64P("timeout", "t", 30, "solver time budget in seconds (then SIGTERM)")
	flags.Float64P("grace", "g", 5, "seconds between SIGTERM and SIGKILL")
	flags.IntP("parallel", "p", 0, "number of solvers to run in parallel; default: number of cores")
	flags.BoolP("optimal", "o", false, "keep logs of valid solutions worse than the server's best known score")
	flags.BoolP("keep-logs", "k", false, "keep logs of successful runs")
	flags.Bool("no-profile", false, "do not wrap the solver with the resource-usage profiler")
	flags.Bool("no-envs", false, "do not set STRIDE_INSTANCE_PATH/STRIDE_TIMEOUT/STRIDE_GRACE on the solver")
	flags.Bool("offline", false, "never contact the remote aggregation server")
	flags.String("server", "", "remote aggregation server base URL")
	flags.Int("max-run-logs", 0, "keep at most this many run directories, pruning the oldest (0 disables pruning)")
	flags.String("log-dir", logsDirName, "parent directory for per-run log directories")

	for flag, env := range map[string]string{
		"solver":       "STRIDE_SOLVER",
		"timeout":      "STRIDE_TIMEOUT",
		"grace":        "STRIDE_GRACE",
		"parallel":     "STRIDE_PARALLEL",
		"optimal":      "STRIDE_OPTIMAL",
		"keep-logs":    "STRIDE_KEEP",
		"server":       "STRIDE_SERVER",
		"max-run-logs": "STRIDE_MAX_RUN_LOGS",
	} {
		_ = viper.BindEnv(flag, env)
		_ = viper.BindPFlag(flag, flags.Lookup(flag))
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	instancePaths, _ := cmd.Flags().GetStringArray("instances")
	if len(instancePaths) == 0 {
		return fmt.Errorf("no instance provided; use --instances")
	}

	solverPath := viper.GetString("solver")
	if solverPath == "" {
		return fmt.Errorf("no solver provided; use --solver")
	}

	softTimeout := time.Duration(viper.GetFloat64("timeout") * float64(time.Second))
	gracePeriod := time.Duration(viper.GetFloat64("grace") * float64(time.Second))

	parallel := viper.GetInt("parallel")
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	requireOptimal := viper.GetBool("optimal")
	keepLogs := viper.GetBool("keep-logs")
	noProfile, _ := cmd.Flags().GetBool("no-profile")
	noEnvs, _ := cmd.Flags().GetBool("no-envs")
	offline, _ := cmd.Flags().GetBool("offline")
	serverURL := viper.GetString("server")
	maxRunLogs := viper.GetInt("max-run-logs")
	logDir, _ := cmd.Flags().GetString("log-dir")

	solverArgs := args
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		solverArgs = args[dash:]
	}

	instances := instanceset.New()
	for _, p := range instancePaths {
		if err := instances.ParseAndInsert(p); err != nil {
			return fmt.Errorf("parse instance set: %w", err)
		}
	}
	if instances.Len() == 0 {
		return fmt.Errorf("instance set is empty")
	}

	fs := afero.NewOsFs()
	rd, err := rundir.New(fs, logDir)
	if err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	messagesFile, err := os.OpenFile(filepath.Join(rd.Path(), "messages.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open messages.log: %w", err)
	}
	defer messagesFile.Close()

	runLogger := slog.New(newFanoutHandler(logger.Handler(), slog.NewTextHandler(messagesFile, nil)))

	sw, err := summary.Open(rd.Path(), runLogger)
	if err != nil {
		return fmt.Errorf("open summary writer: %w", err)
	}
	defer sw.Close()

	var agg *uploader.Aggregator
	if !offline && serverURL != "" {
		httpUp, err := uploader.NewHTTPUploader(serverURL, false)
		if err != nil {
			return fmt.Errorf("create uploader: %w", err)
		}
		cache, err := storage.NewSQLiteBestKnownCache(filepath.Join(filepath.Dir(rd.Path()), "best_known.sqlite3"))
		if err != nil {
			return fmt.Errorf("open best-known cache: %w", err)
		}
		if err := cache.Init(); err != nil {
			return fmt.Errorf("init best-known cache: %w", err)
		}
		defer cache.Close()

		agg = uploader.New(httpUp, cache, runLogger)
		defer func() { agg.Close(); agg.Wait() }()
	}

	disp := display.New(os.Stderr, instances.Len())
	for _, inst := range instances.Instances() {
		if inst.IDigest != nil {
			disp.EnableScoreboard()
			break
		}
	}

	effectiveSolver := solverPath
	effectiveArgs := solverArgs
	if !noProfile {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve own executable for profile wrapper: %w", err)
		}
		effectiveSolver = self
		effectiveArgs = append([]string{"profile", "--", solverPath}, solverArgs...)
	}

	stats := runstats.NewCollector()

	tc := scheduler.TaskContext{
		Fs:             fs,
		SolverPath:     effectiveSolver,
		SolverArgs:     effectiveArgs,
		SoftTimeout:    softTimeout,
		GracePeriod:    gracePeriod,
		ForwardEnv:     !noEnvs,
		RequireOptimal: requireOptimal,
		KeepLogs:       keepLogs,
		RunDir:         rd,
		Uploader:       agg,
		Summary:        sw,
		Display:        disp,
		Stats:          stats,
		Logger:         runLogger,
	}

	sched := scheduler.New(tc, parallel)
	runErr := sched.Run(context.Background(), instances.Instances())

	fmt.Fprint(os.Stderr, stats.Snapshot().Banner())

	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}

	if maxRunLogs > 0 {
		if err := rundir.PruneOldest(fs, logDir, maxRunLogs); err != nil {
			runLogger.Warn("prune old run logs", "error", err)
		}
	}

	return nil
}
