package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clearcrawl/internal/agent"
	"clearcrawl/internal/knowledge"
	"clearcrawl/internal/llm"
)

var (
	researchQuery string
	reportFile    string
	llmModel      string
	clearStore    bool
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Crawl a site and generate a research report",
	Long:  `Crawl breadth-first from a seed URL, index the extracted text in the knowledge base, and generate a Markdown research report for the query`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyCrawlFlags(cmd, cfg)
		if cmd.Flags().Changed("model") {
			cfg.LLM.Model = llmModel
		}

		logger, err := buildLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		c, cleanup, err := newCrawler(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create crawler: %w", err)
		}
		defer cleanup()

		store, err := knowledge.NewChromaStore(cfg.Knowledge.Endpoint, logger)
		if err != nil {
			return fmt.Errorf("failed to create knowledge store: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if clearStore {
			store.Clear(ctx)
		}

		results := c.Crawl(ctx, startURL)
		if err := saveResults(cfg, results, logger); err != nil {
			logger.Error("failed to save results", zap.Error(err))
		}

		now := time.Now().UTC().Format(time.RFC3339)
		for url, data := range results {
			store.AddDocument(ctx, data.Content, knowledge.Metadata{
				URL:       url,
				Timestamp: now,
			})
		}
		logger.Info("indexed crawl results",
			zap.Int("pages", len(results)),
			zap.Int("documents", store.Count(ctx)))

		provider := llm.NewGroqAPI("").WithModel(cfg.LLM.Model)
		a := agent.New(provider, llm.GenerateOptions{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, logger)

		report := a.Analyze(ctx, researchQuery, results, store)

		if err := os.WriteFile(reportFile, []byte(report), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		fmt.Printf("Research completed: %d pages crawled, report written to %s\n", len(results), reportFile)
		return nil
	},
}

func init() {
	addCrawlFlags(researchCmd)
	researchCmd.Flags().StringVar(&researchQuery, "query", "", "Research query (required)")
	researchCmd.Flags().StringVar(&reportFile, "output", "report.md", "Report output path")
	researchCmd.Flags().StringVar(&llmModel, "model", "", "LLM model for report generation")
	researchCmd.Flags().BoolVar(&clearStore, "clear-store", false, "Clear the knowledge base before indexing")

	researchCmd.MarkFlagRequired("url")
	researchCmd.MarkFlagRequired("query")
}
