package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"clearcrawl/internal/knowledge"
)

var queryResults int

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Query the knowledge base",
	Long:  `Search the knowledge base for documents relevant to the given text`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := buildLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		store, err := knowledge.NewChromaStore(cfg.Knowledge.Endpoint, logger)
		if err != nil {
			return fmt.Errorf("failed to create knowledge store: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		text := strings.Join(args, " ")
		results := store.Query(ctx, text, queryResults)
		if len(results) == 0 {
			fmt.Println("No matching documents.")
			return nil
		}

		for i, r := range results {
			excerpt := r.Text
			if len(excerpt) > 200 {
				excerpt = excerpt[:200] + "..."
			}
			fmt.Printf("%d. %s (distance %.4f)\n   %s\n", i+1, r.Metadata.URL, r.Distance, excerpt)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVarP(&queryResults, "results", "n", 5, "Number of results to return")
}
