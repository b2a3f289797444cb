// Package cli provides the command-line interface for the grcora
// corpus pipeline: ingesting control records, building the embedding
// index, querying the corpus and auditing generated answers.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/zeegglar/GRCora-sub003/internal/adapters/driven/config/file"
	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/embedding/ollama"
	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/index/lexical"
	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/index/vector"
	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/storage/sqlite"
	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driving"
	"github.com/zeegglar/GRCora-sub003/internal/core/services"
	"github.com/zeegglar/GRCora-sub003/internal/logger"
	"github.com/zeegglar/GRCora-sub003/internal/segmenter"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by initServices. Tests substitute these directly.
var (
	ingestService    driving.Ingestor
	indexService     driving.Indexer
	retrievalService driving.Retriever
	auditService     driving.Auditor
	statusService    driving.StatusReporter
	configStore      driven.ConfigStore

	metadataStore *sqlite.Store
)

var (
	verboseFlag   bool
	dataDirFlag   string
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "grcora",
	Short: "Compliance corpus retrieval pipeline",
	Long: `grcora manages a retrieval corpus of compliance control records.
It segments controls into token-bounded chunks, indexes them for hybrid
keyword and semantic search, and audits generated answers for grounding.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default ~/.grcora/data)")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "config directory (default ~/.grcora)")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices wires the full pipeline: SQLite persistence, the Ollama
// embedder, in-process indexes and the core services. Commands that
// touch the corpus call it once at the start of their run.
func initServices(ctx context.Context) error {
	if ingestService != nil {
		return nil // already wired (or substituted by tests)
	}

	cfg, err := configfile.NewConfigStore(configDirFlag)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configStore = cfg

	// Pick up tuned retrieval weights and audit policy edited while a
	// command runs; the watcher stops with the command context.
	go func() {
		if err := cfg.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Config watch stopped: %v", err)
		}
	}()

	store, err := sqlite.NewStore(dataDirFlag)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	metadataStore = store

	embedder := ollama.NewEmbeddingService(ollama.Config{
		BaseURL:      cfg.GetString("embedding.base_url"),
		Model:        cfg.GetString("embedding.model"),
		ModelVersion: cfg.GetString("embedding.model_version"),
		Dimensions:   cfg.GetInt("embedding.dimensions"),
	})

	seg := newSegmenterFromConfig(cfg)
	lexicalIndex := lexical.New()
	vectorIndex := vector.New()

	controlStore := store.ControlStore()
	chunkStore := store.ChunkStore()
	embeddingStore := store.EmbeddingStore()

	if err := warmIndexes(ctx, chunkStore, embeddingStore, lexicalIndex, vectorIndex, embedder.ModelID()); err != nil {
		return fmt.Errorf("warming indexes: %w", err)
	}

	ingestService = services.NewIngestService(controlStore, chunkStore, lexicalIndex, seg)
	indexService = services.NewIndexService(chunkStore, embeddingStore, vectorIndex, embedder,
		indexOptionsFromConfig(cfg)...)
	retrievalService = services.NewRetrievalService(chunkStore, lexicalIndex, vectorIndex, embedder)
	auditService = services.NewAuditService(auditPolicyFromConfig(cfg))
	statusService = services.NewStatusService(controlStore, chunkStore, embedder.ModelID())

	return nil
}

func closeServices() {
	if metadataStore != nil {
		metadataStore.Close() //nolint:errcheck
		metadataStore = nil
	}
}

// newSegmenterFromConfig builds a segmenter honouring configured
// chunking bounds; zero values fall through to the defaults.
func newSegmenterFromConfig(cfg driven.ConfigStore) *segmenter.Segmenter {
	var opts []segmenter.Option
	if v := cfg.GetInt("chunking.min_tokens"); v > 0 {
		opts = append(opts, segmenter.WithMinTokens(v))
	}
	if v := cfg.GetInt("chunking.max_tokens"); v > 0 {
		opts = append(opts, segmenter.WithMaxTokens(v))
	}
	lo := cfg.GetInt("chunking.overlap_min_tokens")
	hi := cfg.GetInt("chunking.overlap_max_tokens")
	if lo > 0 && hi > 0 {
		opts = append(opts, segmenter.WithOverlapBounds(lo, hi))
	}
	return segmenter.New(opts...)
}

// indexOptionsFromConfig maps embedding batch and pacing settings.
func indexOptionsFromConfig(cfg driven.ConfigStore) []services.IndexOption {
	var opts []services.IndexOption
	if v := cfg.GetInt("embedding.batch_size"); v > 0 {
		opts = append(opts, services.WithBatchSize(v))
	}
	if v := cfg.GetFloat("embedding.rate_per_second"); v > 0 {
		opts = append(opts, services.WithEmbedRate(v))
	}
	return opts
}

// auditPolicyFromConfig loads the scoring policy, including the
// allow-list of cross-framework identifiers.
func auditPolicyFromConfig(cfg driven.ConfigStore) domain.AuditPolicy {
	policy := domain.AuditPolicy{
		CitationPenalty:    cfg.GetInt("audit.citation_penalty"),
		NoCitationPenalty:  cfg.GetInt("audit.no_citation_penalty"),
		GroundedBonus:      cfg.GetInt("audit.grounded_bonus"),
		BonusCitationCount: cfg.GetInt("audit.bonus_citation_count"),
		PassThreshold:      cfg.GetInt("audit.pass_threshold"),
		AllowedInferences:  cfg.GetStringSlice("audit.allowed_inferences"),
	}
	return policy
}

// configuredFrameworks returns the frameworks to operate on: the
// configured list, or the well-known set when none is configured.
func configuredFrameworks(cfg driven.ConfigStore) []domain.Framework {
	var names []string
	if cfg != nil {
		names = cfg.GetStringSlice("frameworks")
	}
	if len(names) == 0 {
		return []domain.Framework{
			domain.FrameworkISO27001,
			domain.FrameworkSOC2,
			domain.FrameworkNIST,
			domain.FrameworkCIS,
			domain.FrameworkPCIDSS,
		}
	}
	frameworks := make([]domain.Framework, len(names))
	for i, name := range names {
		frameworks[i] = domain.Framework(name)
	}
	return frameworks
}

// warmIndexes rebuilds the in-process lexical and vector indexes from
// the persisted corpus. The SQLite store is the source of truth; the
// indexes are derived state rebuilt on every start.
func warmIndexes(
	ctx context.Context,
	chunkStore driven.ChunkStore,
	embeddingStore driven.EmbeddingStore,
	lexicalIndex driven.LexicalIndex,
	vectorIndex driven.VectorIndex,
	modelID string,
) error {
	for _, framework := range configuredFrameworks(configStore) {
		chunks, err := chunkStore.ListChunksByFramework(ctx, framework)
		if err != nil {
			return fmt.Errorf("listing chunks for %s: %w", framework, err)
		}
		for i := range chunks {
			if err := lexicalIndex.Index(ctx, chunks[i]); err != nil {
				return fmt.Errorf("indexing chunk %s: %w", chunks[i].ID, err)
			}
			entry, err := embeddingStore.GetEmbedding(ctx, chunks[i].ID, modelID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue // not yet embedded, picked up by the next embed run
				}
				return fmt.Errorf("loading embedding for %s: %w", chunks[i].ID, err)
			}
			if err := vectorIndex.Upsert(ctx, chunks[i].ID, entry.Vector); err != nil {
				return fmt.Errorf("loading vector for %s: %w", chunks[i].ID, err)
			}
		}
	}
	return nil
}
