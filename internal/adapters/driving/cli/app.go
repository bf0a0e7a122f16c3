package cli

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/adapters/driven/discord"
	"github.com/campuswatch/watcher/internal/adapters/driven/embedding/ollama"
	"github.com/campuswatch/watcher/internal/adapters/driven/llm/groq"
	"github.com/campuswatch/watcher/internal/adapters/driven/storage/sqlite"
	"github.com/campuswatch/watcher/internal/adapters/driven/vectorstore/qdrant"
	"github.com/campuswatch/watcher/internal/config"
	"github.com/campuswatch/watcher/internal/connectors/handbook"
	"github.com/campuswatch/watcher/internal/connectors/website"
	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
	"github.com/campuswatch/watcher/internal/core/services"
	"github.com/campuswatch/watcher/internal/normalisers"
	"github.com/campuswatch/watcher/internal/normalisers/pdf"
	"github.com/campuswatch/watcher/internal/normalisers/plaintext"
	"github.com/campuswatch/watcher/internal/normalisers/webpage"
	"github.com/campuswatch/watcher/internal/postprocessors"
	"github.com/campuswatch/watcher/internal/postprocessors/chunker"
)

// app holds every wired component. Built per command invocation.
type app struct {
	cfg *config.Config
	log *zap.Logger

	embedder  driven.EmbeddingService
	generator driven.GenerationService
	store     driven.VectorStore
	runs      driven.RunStore
	handbook  driven.HandbookSource
	crawler   *website.Connector
	registry  driven.NormaliserRegistry
	pipeline  driven.PostProcessorPipeline
	delivery  driven.DeliveryService

	answerer   *services.AnswerService
	ingest     *services.IngestOrchestrator
	dispatcher *services.Dispatcher
}

// appOptions selects which optional components buildApp constructs.
type appOptions struct {
	// generation requires a Groq API key; ingest-only commands skip it.
	generation bool

	// runStore opens the local run ledger.
	runStore bool
}

func buildApp(cfg *config.Config, log *zap.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: log}

	a.embedder = ollama.NewEmbeddingService(ollama.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.EmbedTimeout(),
	})

	store, err := qdrant.New(qdrant.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		Collection: cfg.Qdrant.Collection,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to vector store: %w", err)
	}
	a.store = store

	if opts.generation {
		generator, err := groq.NewGenerationService(groq.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.GenerateTimeout(),
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("configuring generation service: %w", err)
		}
		a.generator = generator

		a.answerer = services.NewAnswerService(a.embedder, a.store, a.generator, log,
			services.WithRetrieval(cfg.Retrieval.TopK, float32(cfg.Retrieval.MinScore)),
			services.WithTemperature(cfg.LLM.Temperature))
	}

	if opts.runStore {
		runs, err := sqlite.NewStore(cfg.Ingest.DataDir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening run ledger: %w", err)
		}
		a.runs = runs
	}

	a.crawler = website.New(website.Config{
		Seeds:           cfg.Crawler.Seeds,
		IncludeKeywords: cfg.Crawler.IncludeKeywords,
		ExcludeKeywords: cfg.Crawler.ExcludeKeywords,
		MaxPages:        cfg.Crawler.MaxPages,
		Delay:           cfg.CrawlDelay(),
		UserAgent:       cfg.Crawler.UserAgent,
		Timeout:         cfg.FetchTimeout(),
	}, log)

	if cfg.Ingest.HandbookPath != "" {
		a.handbook = handbook.New(cfg.Ingest.HandbookPath, log)
	} else {
		a.handbook = noHandbook{}
	}

	registry := normalisers.NewRegistry()
	registry.Register(webpage.New(webpage.Config{
		NoiseSelectors: cfg.Extractor.NoiseSelectors,
		MainContentID:  cfg.Extractor.MainContentID,
	}))
	registry.Register(plaintext.New())
	registry.Register(pdf.New())
	a.registry = registry

	a.pipeline = postprocessors.NewPipeline(chunker.New(
		chunker.WithWebWindow(cfg.Chunker.WebWindowLines, cfg.Chunker.WebOverlapLines, cfg.Chunker.WebMinLines),
		chunker.WithDocWindow(cfg.Chunker.DocWindowChars, cfg.Chunker.DocOverlapChars),
	))

	a.delivery = discord.NewDeliveryService(discord.Config{
		BaseURL:  cfg.Discord.BaseURL,
		BotToken: cfg.Discord.BotToken,
		Timeout:  cfg.DeliveryTimeout(),
	})

	a.ingest = services.NewIngestOrchestrator(
		a.crawler, a.crawler, a.handbook, a.registry, a.pipeline,
		a.embedder, a.store, a.runs, log,
		services.WithEmbedBatch(cfg.Ingest.EmbedBatchSize),
	)

	a.dispatcher = services.NewDispatcher(cfg.Dispatcher.Workers, cfg.Dispatcher.QueueSize, log)

	return a, nil
}

// noHandbook stands in when no handbook path is configured.
type noHandbook struct{}

func (noHandbook) Load(context.Context) (*domain.RawPage, error) {
	return nil, fmt.Errorf("%w: no handbook path configured", domain.ErrNotFound)
}

func (noHandbook) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (noHandbook) Close() error { return nil }

// publicKey decodes the configured hex verification key.
func (a *app) publicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(a.cfg.Server.PublicKey)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%s must be a %d-byte hex key", config.EnvPublicKey, ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// answerTimeout bounds one background answer task: embed, retrieve,
// generate and deliver, plus slack for retries.
func (a *app) answerTimeout() time.Duration {
	return a.cfg.EmbedTimeout() + a.cfg.GenerateTimeout() + a.cfg.DeliveryTimeout() + 30*time.Second
}

// Close releases everything buildApp opened, tolerating partial builds.
func (a *app) Close() {
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if a.handbook != nil {
		_ = a.handbook.Close()
	}
	if a.runs != nil {
		_ = a.runs.Close()
	}
	if a.generator != nil {
		_ = a.generator.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
}
