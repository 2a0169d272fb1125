package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/council-votes/internal/airtable"
	"github.com/pfrederiksen/council-votes/internal/config"
	"github.com/pfrederiksen/council-votes/internal/escribe"
	"github.com/pfrederiksen/council-votes/internal/localstore"
	"github.com/pfrederiksen/council-votes/internal/logger"
	"github.com/pfrederiksen/council-votes/internal/minutes"
	"github.com/pfrederiksen/council-votes/internal/store"
	"github.com/pfrederiksen/council-votes/internal/sync"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

const dateLayout = "2006-01-02"

var (
	flagStartDate string
	flagEndDate   string
	flagDryRun    bool
	flagBackend   string
	flagVerbose   bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "council-votes",
		Short: "Sync recorded council votes from published meeting minutes",
		Long: `Fetches council meetings from the public eScribe calendar, parses the
published English HTML minutes for recorded (divided) votes, and syncs
meetings, motions, and individual councillor votes to the destination store.`,
		RunE:          runSync,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&flagStartDate, "start-date", "", "Start date (YYYY-MM-DD, default: first of the current month)")
	cmd.Flags().StringVar(&flagEndDate, "end-date", "", "End date (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Parse and log results without writing any records")
	cmd.PersistentFlags().StringVar(&flagBackend, "backend", "airtable", "Destination store backend: airtable or local")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newClearCmd())

	return cmd
}

// runSync is the main command logic
func runSync(cmd *cobra.Command, args []string) error {
	configureLogging()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	start, end, err := resolveDateRange(time.Now(), flagStartDate, flagEndDate)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg, flagDryRun)
	if err != nil {
		return err
	}
	defer closeStore()

	client := escribe.NewClient(cfg)
	ctx := context.Background()

	logger.Info("Fetching meeting calendar", logger.Fields{
		"start": start.Format(dateLayout),
		"end":   end.Format(dateLayout),
	})

	meetings, err := client.Meetings(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetching meeting calendar: %w", err)
	}

	logger.Info("Calendar fetched", logger.Fields{"meetings": len(meetings)})

	uploader := sync.NewUploader(st, sync.TablesFromConfig(cfg), flagDryRun)

	var total sync.Summary
	for _, meeting := range meetings {
		for _, link := range meeting.MinutesLinks(client.BaseURL()) {
			html, err := client.FetchMinutes(ctx, link)
			if err != nil {
				logger.Error("Skipping minutes page after failed fetch", logger.Fields{"url": link}, err)
				logger.IncrCounter("pages.failed")
				continue
			}

			motions, err := minutes.Parse(strings.NewReader(html))
			if err != nil {
				logger.Error("Skipping unparsable minutes page", logger.Fields{"url": link}, err)
				logger.IncrCounter("pages.failed")
				continue
			}
			logger.AddCounter("motions.parsed", int64(len(motions)))

			if len(motions) == 0 {
				logger.Debug("No divided votes on page", logger.Fields{"url": link})
				continue
			}

			logger.Info("Uploading motions", logger.Fields{
				"meeting": meeting.ExternalID(),
				"motions": len(motions),
			})

			summary := sync.Summarize(uploader.Run(ctx, meeting, motions))
			total.Created += summary.Created
			total.Skipped += summary.Skipped
			total.Failed += summary.Failed
		}
	}

	logger.Info("Run complete", logger.Fields{
		"created":  total.Created,
		"skipped":  total.Skipped,
		"failed":   total.Failed,
		"counters": logger.CountersSnapshot(),
	})

	if flagDryRun {
		fmt.Println("Dry run complete; no records were written.")
	}

	return nil
}

// resolveDateRange applies the date flags over their defaults: the first of
// the current month through today.
func resolveDateRange(now time.Time, startFlag, endFlag string) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if startFlag != "" {
		parsed, err := time.Parse(dateLayout, startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start-date %q (expected YYYY-MM-DD)", startFlag)
		}
		start = parsed
	}
	if endFlag != "" {
		parsed, err := time.Parse(dateLayout, endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end-date %q (expected YYYY-MM-DD)", endFlag)
		}
		end = parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}

	return start, end, nil
}

// openStore builds the configured store backend. Airtable credentials are
// required for any run that writes; dry runs get a client without
// validation since they never call it.
func openStore(cfg config.Config, dryRun bool) (store.RecordStore, func(), error) {
	switch strings.ToLower(flagBackend) {
	case "airtable":
		if !dryRun {
			if err := cfg.ValidateForUpload(); err != nil {
				return nil, nil, err
			}
		}
		return airtable.NewClient(cfg), func() {}, nil
	case "local":
		db, err := localstore.Open(cfg.LocalDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening local store: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (expected airtable or local)", flagBackend)
	}
}

func configureLogging() {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stdout))
	}
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
