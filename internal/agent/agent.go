// Package agent turns crawl results into a research report. It assembles a
// compact JSON context from crawled pages and knowledge-store excerpts, asks
// an LLM provider to write the report, and falls back to a deterministic
// Markdown summary when generation fails.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nao1215/markdown"
	"go.uber.org/zap"

	"clearcrawl/internal/knowledge"
	"clearcrawl/internal/llm"
	"clearcrawl/internal/types"
)

const systemPrompt = `You are a research assistant that analyzes web content and generates comprehensive reports.
Your task is to analyze the provided context and create a detailed, well-structured report that addresses the research query.

Your report should:
1. Begin with an executive summary
2. Include key findings organized by themes or categories
3. Cite sources using [Source: URL] format
4. Include a conclusion with insights and recommendations
5. Be formatted in Markdown with proper headings, lists, and emphasis

Base your analysis only on the provided context. If the context is insufficient, acknowledge the limitations.
`

const (
	maxContextPages   = 10
	maxRelevantDocs   = 5
	contentPreviewLen = 500
	excerptLen        = 1000
)

// Agent generates research reports from crawled data.
type Agent struct {
	provider llm.Provider
	opts     llm.GenerateOptions
	logger   *zap.Logger
}

// New creates an Agent backed by the given provider.
func New(provider llm.Provider, opts llm.GenerateOptions, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		provider: provider,
		opts:     opts,
		logger:   logger,
	}
}

// Analyze queries the knowledge store for documents relevant to query, builds
// a context from them plus the crawled pages, and returns a Markdown report.
// It always returns a report: if generation fails, the report states the error
// and summarizes the raw data.
func (a *Agent) Analyze(ctx context.Context, query string, crawled map[string]types.PageData, store knowledge.Store) string {
	a.logger.Info("starting analysis", zap.String("query", query), zap.Int("pages", len(crawled)))

	var relevant []knowledge.Result
	if store != nil {
		relevant = store.Query(ctx, query, maxRelevantDocs)
	}

	reportCtx := buildContext(query, crawled, relevant)

	report, err := a.generate(ctx, query, reportCtx)
	if err != nil {
		a.logger.Error("report generation failed", zap.Error(err))
		return fallbackReport(err, query, reportCtx)
	}
	a.logger.Info("generated report", zap.Int("chars", len(report)))
	return report
}

type pageSummary struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	ContentPreview string `json:"content_preview"`
	NumLinks       int    `json:"num_links"`
}

type crawledSummary struct {
	NumPages int           `json:"num_pages"`
	Pages    []pageSummary `json:"pages"`
}

type relevantDoc struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type reportContext struct {
	Query             string         `json:"query"`
	CrawledData       crawledSummary `json:"crawled_data"`
	RelevantDocuments []relevantDoc  `json:"relevant_documents"`
}

func buildContext(query string, crawled map[string]types.PageData, relevant []knowledge.Result) reportContext {
	urls := make([]string, 0, len(crawled))
	for u := range crawled {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	if len(urls) > maxContextPages {
		urls = urls[:maxContextPages]
	}

	summary := crawledSummary{
		NumPages: len(crawled),
		Pages:    make([]pageSummary, 0, len(urls)),
	}
	for _, u := range urls {
		data := crawled[u]
		summary.Pages = append(summary.Pages, pageSummary{
			URL:            u,
			Title:          data.Metadata.Title,
			ContentPreview: truncate(data.Content, contentPreviewLen),
			NumLinks:       len(data.Links),
		})
	}

	docs := make([]relevantDoc, 0, len(relevant))
	for _, doc := range relevant {
		source := doc.Metadata.URL
		if source == "" {
			source = "Unknown source"
		}
		docs = append(docs, relevantDoc{
			Text:   truncate(doc.Text, excerptLen),
			Source: source,
		})
	}

	return reportContext{
		Query:             query,
		CrawledData:       summary,
		RelevantDocuments: docs,
	}
}

func (a *Agent) generate(ctx context.Context, query string, reportCtx reportContext) (string, error) {
	if a.provider == nil || !a.provider.Available() {
		return "", llm.ErrNoProvider
	}

	contextJSON, err := json.MarshalIndent(reportCtx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling context: %w", err)
	}

	userPrompt := fmt.Sprintf(`Research Query: %s

Context:
%s

Please generate a comprehensive research report based on this information.
`, query, contextJSON)

	return a.provider.Generate(ctx, systemPrompt, userPrompt, a.opts)
}

// fallbackReport builds the deterministic report returned when generation
// fails.
func fallbackReport(genErr error, query string, reportCtx reportContext) string {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("Error Generating Report")
	md.PlainText("")
	md.PlainTextf("Unfortunately, an error occurred while generating the report: %v", genErr)
	md.PlainText("")
	md.H2("Raw Data Summary")
	md.BulletList(
		fmt.Sprintf("Query: %s", query),
		fmt.Sprintf("Pages crawled: %d", reportCtx.CrawledData.NumPages),
		fmt.Sprintf("Relevant documents: %d", len(reportCtx.RelevantDocuments)),
	)

	if err := md.Build(); err != nil {
		return fmt.Sprintf("# Error Generating Report\n\n%v\n", genErr)
	}
	return buf.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
