package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/council-votes/internal/config"
	"github.com/pfrederiksen/council-votes/internal/sync"
)

var flagYes bool

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every synced record from the destination store",
		Long: `Deletes all Vote, Motion, Meeting, and Councillor records from the
destination store. Asks for confirmation unless --yes is given.`,
		RunE: runClear,
	}

	cmd.Flags().BoolVar(&flagYes, "yes", false, "Skip the interactive confirmation")

	return cmd
}

func runClear(cmd *cobra.Command, args []string) error {
	configureLogging()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	st, closeStore, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer closeStore()

	if !flagYes && !confirmClear(os.Stdin, os.Stdout) {
		fmt.Println("Aborted; nothing deleted.")
		return nil
	}

	deleted, err := sync.Clear(context.Background(), st, sync.TablesFromConfig(cfg))
	for table, count := range deleted {
		fmt.Printf("%s: deleted %d records\n", table, count)
	}
	if err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	return nil
}

// confirmClear prompts for an explicit "yes" before destructive work.
func confirmClear(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "This permanently deletes ALL synced records. Type 'yes' to continue: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "yes")
}
