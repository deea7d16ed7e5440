package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/backr/internal/config"
	"github.com/bamsammich/backr/internal/engine"
	"github.com/bamsammich/backr/internal/event"
	"github.com/bamsammich/backr/internal/preflight"
	"github.com/bamsammich/backr/internal/report"
	"github.com/bamsammich/backr/internal/stats"
	"github.com/bamsammich/backr/internal/ui"
)

var version = "dev"

const defaultRegex = "Documents|Downloads|Movies|Music|Pictures|Videos"

const longHelp = `backr mirrors a source directory tree into a destination directory.

Files are selected by matching their path against a regular expression
(--regex, substring semantics) or copied unconditionally with
--backup-all. Copy work is spread across a fixed pool of worker threads.
With --update, files whose destination copy is the same age or newer are
skipped. Every failed transfer is recorded, one source path per line, to
the failure log for later retry.

Permission bits are replicated best-effort: on filesystems or platforms
that do not support POSIX modes the content is still copied and the run
is treated as successful.`

func main() {
	os.Exit(run())
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: main CLI entry point orchestrates all flag parsing and mode selection
func run() int {
	var (
		source      string
		destination string
		regex       string
		backupAll   bool
		update      bool
		threads     int
		progress    bool
		quiet       bool
		verbose     bool
		outputFile  string
		forceLog    bool
		logFile     string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "backr [flags]",
		Short: "Regex-filtered parallel directory backup",
		Long:  longHelp,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			if err := cobra.NoArgs(cmd, args); err != nil {
				return err
			}
			if !cmd.Flags().Changed("destination") {
				return errors.New(`required flag "destination" not set`)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "backr %s\n", version)
				return nil
			}

			// Load optional config file and apply its defaults for
			// flags not explicitly set on the CLI.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults,
				&threads, &update, &progress, &regex, &forceLog)

			// Configure logging.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			slog.SetDefault(slog.New(logHandler))

			src, err := filepath.Abs(source)
			if err != nil {
				return fmt.Errorf("resolve source %s: %w", source, err)
			}

			// The backup lands under a directory named after the
			// source, so one destination can hold several sources.
			dstRoot := filepath.Join(destination, filepath.Base(src))

			if err := preflight.CheckSource(src); err != nil {
				return err
			}
			warn, err := preflight.CheckDestination(destination)
			if err != nil {
				return err
			}
			if warn != "" {
				slog.Warn(warn)
			}

			if threads < 1 {
				threads = 1
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// When --log is set, tee events through a logging goroutine
			// that writes structured records before forwarding to the
			// presenter.
			presenterEvents := (<-chan event.Event)(events)
			if logFile != "" {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						attrs := []slog.Attr{
							slog.String("type", ev.Type.String()),
							slog.String("path", ev.Path),
							slog.Int64("size", ev.Size),
							slog.Int("worker", ev.WorkerID),
						}
						if ev.Error != nil {
							attrs = append(attrs, slog.String("error", ev.Error.Error()))
						}
						slog.LogAttrs(context.Background(), slog.LevelInfo, "backr.event", attrs...)
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			presenter := ui.NewPresenter(ui.Config{
				Writer:    os.Stdout,
				ErrWriter: os.Stderr,
				Stats:     collector,
				SrcRoot:   src,
				IsTTY:     ui.IsTTY(os.Stderr.Fd()),
				Quiet:     quiet,
				Verbose:   verbose,
				Progress:  progress,
			})

			slog.Debug("starting backup",
				"source", src,
				"destination", dstRoot,
				"threads", threads,
				"all", backupAll,
				"regex", regex,
				"update", update,
			)

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			result := engine.Run(ctx, engine.Config{
				Src:     src,
				Dst:     dstRoot,
				All:     backupAll,
				Pattern: regex,
				Update:  update,
				Workers: threads,
				Stats:   collector,
				Events:  events,
			})
			stop()
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
			}

			if result.Err != nil {
				return result.Err
			}

			if !cmd.Flags().Changed("output-file") {
				outputFile = filepath.Join(destination, "backr_log.txt")
			}
			written, err := report.Write(outputFile, result.Failures, forceLog)
			if err != nil {
				// Last resort: the failure list must survive somewhere.
				slog.Error("failed to write failure log", "error", err)
				for _, fail := range result.Failures {
					fmt.Fprintln(os.Stderr, fail.Path)
				}
			} else if written && len(result.Failures) > 0 {
				slog.Info("failures recorded", "count", len(result.Failures), "log", outputFile)
			}

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if len(result.Failures) > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	rootCmd.Flags().StringVarP(&source, "source", "s", ".", "directory to back up")
	rootCmd.Flags().
		StringVarP(&destination, "destination", "d", "", "directory to back up into (required)")
	rootCmd.Flags().
		StringVarP(&regex, "regex", "r", defaultRegex, "copy files whose path matches this regular expression")
	rootCmd.Flags().
		BoolVarP(&backupAll, "backup-all", "a", false, "copy every file, ignoring --regex")
	rootCmd.Flags().
		BoolVarP(&update, "update", "u", false, "skip files whose destination copy is the same age or newer")
	rootCmd.Flags().IntVarP(&threads, "threads", "t", 2, "number of copy workers")
	rootCmd.Flags().BoolVarP(&progress, "progress", "p", false, "draw a progress bar")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print a line for every file")
	rootCmd.Flags().
		StringVarP(&outputFile, "output-file", "l", "", "failure log path (default <destination>/backr_log.txt)")
	rootCmd.Flags().
		BoolVarP(&forceLog, "force-log", "L", false, "write the failure log even when nothing failed")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.MarkFlagsMutuallyExclusive("regex", "backup-all")
	rootCmd.MarkFlagsMutuallyExclusive("progress", "quiet")

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	threads *int,
	update *bool,
	progress *bool,
	regex *string,
	forceLog *bool,
) {
	if !cmd.Flags().Changed("threads") && defaults.Threads != nil {
		*threads = *defaults.Threads
	}
	if !cmd.Flags().Changed("update") && defaults.Update != nil {
		*update = *defaults.Update
	}
	if !cmd.Flags().Changed("progress") && defaults.Progress != nil {
		*progress = *defaults.Progress
	}
	if !cmd.Flags().Changed("regex") && defaults.Regex != nil {
		*regex = *defaults.Regex
	}
	if !cmd.Flags().Changed("force-log") && defaults.ForceLog != nil {
		*forceLog = *defaults.ForceLog
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
