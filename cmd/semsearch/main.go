package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"semsearch/internal/chunker"
	"semsearch/internal/config"
	"semsearch/internal/domain"
	"semsearch/internal/embedding/openai"
	"semsearch/internal/logger"
	"semsearch/internal/pdf"
	"semsearch/internal/service"
	"semsearch/internal/store"
	"semsearch/internal/tui"
)

// app holds the wired components shared by all subcommands.
type app struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	store  *store.Store
	chunks *chunker.WordChunker
}

func main() {
	_ = godotenv.Load()

	a := &app{}
	var cfgPath, logLevel string

	root := &cobra.Command{
		Use:           "semsearch",
		Short:         "Local semantic search over your PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.AppConfig
			var err error
			if cfgPath == "" {
				cfg, _, err = config.LoadDefault()
			} else {
				cfg, err = config.Load(cfgPath)
			}
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			log, err := logger.New(cfg.Logging.Level)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = log
			a.store = store.New(cfg.DataDir)
			a.chunks = chunker.New(cfg.Chunker.ChunkSizeWords, cfg.Chunker.OverlapWords)
			return a.store.EnsureDirs()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default: ./config.yaml, then ~/.config/semsearch/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newIndexCmd(a),
		newSearchCmd(a),
		newTUICmd(a),
		newDocsCmd(a),
		newStatsCmd(a),
		newClearCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", friendly(err))
		os.Exit(1)
	}
}

// friendly rewords the domain sentinels into actionable guidance.
func friendly(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoIndex):
		return "no index found — run `semsearch index` first"
	case errors.Is(err, domain.ErrIndexLoad):
		return fmt.Sprintf("%v — the index looks corrupted, run `semsearch index` to rebuild", err)
	case errors.Is(err, domain.ErrEmptyCorpus):
		return fmt.Sprintf("%v — add documents with `semsearch docs add <file.pdf>`", err)
	}
	return err.Error()
}

// newService wires the full orchestrator. Only commands that embed
// text pay the cost of constructing the embedding client (and need an
// API key in the environment).
func (a *app) newService() (*service.Service, error) {
	emb, err := openai.NewClient(openai.Config{
		BaseURL:   a.cfg.Embedder.BaseURL,
		APIKeyEnv: a.cfg.Embedder.APIKeyEnv,
		Model:     a.cfg.Embedder.Model,
		BatchSize: a.cfg.Embedder.BatchSize,
		Timeout:   time.Duration(a.cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return service.New(a.chunks, emb, pdf.New(a.log), a.store, a.log), nil
}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index from all uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}
			report, err := svc.IndexCorpus(cmd.Context(), func(current, total int) {
				fmt.Fprintf(os.Stderr, "\rEmbedding passages... %d/%d", current, total)
				if current == total {
					fmt.Fprintln(os.Stderr)
				}
			})
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d document(s), %d passage(s).\n", report.Documents, report.Passages)
			for _, name := range report.Skipped {
				fmt.Printf("Skipped %s (no extractable text or unreadable).\n", name)
			}
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var topK int
	var noHighlight bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index and print passages with citations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			results, err := svc.Query(cmd.Context(), query, topK)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for i, r := range results {
				text := r.Passage.Text
				if !noHighlight {
					text = service.HighlightKeywords(text, query, "**", "**")
				}
				fmt.Printf("%d. %s  score=%.3f\n%s\n\n", i+1, service.FormatCitation(r.Passage), r.Score, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "number of passages to return")
	cmd.Flags().BoolVar(&noHighlight, "no-highlight", false, "disable keyword highlighting")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive search UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(tui.New(svc, topK)).Run()
			return err
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "number of passages per query")
	return cmd
}

func newDocsCmd(a *app) *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "Manage uploaded documents",
	}
	docs.AddCommand(&cobra.Command{
		Use:   "add <file.pdf> [more.pdf ...]",
		Short: "Copy PDFs into the document store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, src := range args {
				dest, err := a.store.AddDocument(src)
				if err != nil {
					return err
				}
				fmt.Printf("Added %s\n", dest)
			}
			fmt.Println("Run `semsearch index` to make them searchable.")
			return nil
		},
	})
	docs.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.store.ListDocuments()
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println("No documents uploaded yet.")
				return nil
			}
			for _, p := range paths {
				info, err := os.Stat(p)
				if err != nil {
					return err
				}
				fmt.Printf("%s (%.1f KB)\n", info.Name(), float64(info.Size())/1024)
			}
			return nil
		},
	})
	docs.AddCommand(&cobra.Command{
		Use:   "rm <name.pdf>",
		Short: "Delete a stored document (the index keeps its passages until the next rebuild)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteDocument(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s. Run `semsearch index` to refresh the index.\n", args[0])
			return nil
		},
	})
	return docs
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.New(a.chunks, nil, pdf.New(a.log), a.store, a.log)
			stats, err := svc.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Documents:     %d\n", stats.TotalDocs)
			fmt.Printf("Passages:      %d\n", stats.TotalChunks)
			fmt.Printf("Embedding dim: %d\n", stats.Dimension)
			fmt.Printf("Index size:    %s\n", stats.IndexSize)
			fmt.Println("Indexed documents:")
			for _, name := range stats.DocNames {
				fmt.Printf("  - %s\n", name)
			}
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the search index (uploaded documents are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.ClearIndex(); err != nil {
				return err
			}
			fmt.Println("Index cleared.")
			return nil
		},
	}
}
