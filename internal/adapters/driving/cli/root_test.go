package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/index/lexical"
	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/index/vector"
	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/storage/memory"
	"github.com/zeegglar/GRCora-sub003/internal/core/services"
)

// stubEmbedder is a fixed-vector embedding service for command tests.
type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}
func (stubEmbedder) Dimensions() int { return 3 }

func (stubEmbedder) ModelID() string { return "stub-embed" }

func (stubEmbedder) ModelVersion() string { return "test" }

func (stubEmbedder) Ping(context.Context) error { return nil }

func (stubEmbedder) Close() error { return nil }

// setupTestServices wires the pipeline against in-memory adapters so
// commands execute without a database or inference service.
func setupTestServices() func() {
	controlStore := memory.NewControlStore()
	chunkStore := memory.NewChunkStore()
	lexicalIndex := lexical.New()
	vectorIndex := vector.New()
	embedder := stubEmbedder{}

	ingestService = services.NewIngestService(controlStore, chunkStore, lexicalIndex, nil)
	indexService = services.NewIndexService(chunkStore, chunkStore, vectorIndex, embedder,
		services.WithEmbedRate(10000))
	retrievalService = services.NewRetrievalService(chunkStore, lexicalIndex, vectorIndex, embedder)
	auditService = services.NewAuditService(auditPolicyFromConfig(nopConfig{}))
	statusService = services.NewStatusService(controlStore, chunkStore, embedder.ModelID())
	configStore = nopConfig{}

	return func() {
		ingestService = nil
		indexService = nil
		retrievalService = nil
		auditService = nil
		statusService = nil
		configStore = nil
	}
}

// nopConfig is an empty config store; every getter returns its zero
// value so services run on their built-in defaults.
type nopConfig struct{}

func (nopConfig) Get(string) (any, bool) { return nil, false }

func (nopConfig) GetString(string) string { return "" }

func (nopConfig) GetInt(string) int { return 0 }

func (nopConfig) GetFloat(string) float64 { return 0 }

func (nopConfig) GetBool(string) bool { return false }

func (nopConfig) GetStringSlice(string) []string { return nil }

func (nopConfig) Set(string, any) error { return nil }

func (nopConfig) Save() error { return nil }

func (nopConfig) Load() error { return nil }

// TestInitServices_ReloadsConfigOnChange wires the real pipeline into
// temp directories and edits config.toml while it is up: the config
// watcher started by initServices must republish the new value without
// a restart.
func TestInitServices_ReloadsConfigOnChange(t *testing.T) {
	configDirFlag = t.TempDir()
	dataDirFlag = t.TempDir()
	defer func() {
		closeServices()
		ingestService = nil
		indexService = nil
		retrievalService = nil
		auditService = nil
		statusService = nil
		configStore = nil
		configDirFlag = ""
		dataDirFlag = ""
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, initServices(ctx))

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(configDirFlag, "config.toml")
	require.NoError(t, os.WriteFile(path,
		[]byte("[retrieval]\nlexical_weight = 0.9\n"), 0600))

	require.Eventually(t, func() bool {
		return configStore.GetFloat("retrieval.lexical_weight") == 0.9
	}, 3*time.Second, 50*time.Millisecond)
}

// execute runs the root command with args and captures output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
