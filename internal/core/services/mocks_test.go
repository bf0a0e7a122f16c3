package services

import (
	"context"
	"sync"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// --- Shared mock implementations for service tests ---

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	batchSizes []int
	texts      []string
	failFirst  int // number of Embed calls to fail before succeeding
	embedErr   error
	batchErr   error
	vector     []float32
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	m.texts = append(m.texts, text)
	if m.failFirst > 0 {
		m.failFirst--
		return nil, domain.ErrEmbedding
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.vector != nil {
		return m.vector, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	err := m.batchErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int              { return 384 }
func (m *mockEmbedder) ModelName() string            { return "all-minilm" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockVectorStore implements driven.VectorStore and records every call.
type mockVectorStore struct {
	mu sync.Mutex

	ensuredDims     int
	upserted        [][]domain.Passage
	deletedURLs     []string
	deletedTypes    []domain.SourceType
	staleKeepURLs   [][]string
	searchFailFirst int

	searchHits []domain.ScoredPassage
	searchErr  error
	upsertErr  error
	deleteErr  error
	ensureErr  error
}

var _ driven.VectorStore = (*mockVectorStore)(nil)

func (m *mockVectorStore) EnsureCollection(_ context.Context, dimensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensuredDims = dimensions
	return m.ensureErr
}

func (m *mockVectorStore) Upsert(_ context.Context, passages []domain.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, passages)
	return nil
}

func (m *mockVectorStore) DeleteByURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedURLs = append(m.deletedURLs, url)
	return nil
}

func (m *mockVectorStore) DeleteBySourceType(_ context.Context, sourceType domain.SourceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedTypes = append(m.deletedTypes, sourceType)
	return nil
}

func (m *mockVectorStore) DeleteStaleWebsite(_ context.Context, keepURLs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleKeepURLs = append(m.staleKeepURLs, keepURLs)
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, _ int, _ float32) ([]domain.ScoredPassage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchFailFirst > 0 {
		m.searchFailFirst--
		return nil, domain.ErrIndex
	}
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchHits, nil
}

func (m *mockVectorStore) Count(_ context.Context, _ string) (uint64, error) { return 0, nil }
func (m *mockVectorStore) Close() error                                      { return nil }

// chatCall records one Chat invocation.
type chatCall struct {
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

// mockGenerator implements driven.GenerationService. messages and opts
// hold the most recent call; calls holds all of them in order.
type mockGenerator struct {
	mu        sync.Mutex
	calls     []chatCall
	messages  []driven.ChatMessage
	opts      driven.ChatOptions
	replies   []string // consumed per call; reply used once exhausted
	reply     string
	failFirst int // leading calls that fail
	err       error
}

var _ driven.GenerationService = (*mockGenerator)(nil)

func (m *mockGenerator) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, chatCall{messages: messages, opts: opts})
	m.messages = messages
	m.opts = opts
	if m.failFirst > 0 {
		m.failFirst--
		return "", domain.ErrGeneration
	}
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) > 0 {
		reply := m.replies[0]
		m.replies = m.replies[1:]
		return reply, nil
	}
	return m.reply, nil
}

func (m *mockGenerator) ModelName() string            { return "llama-3.3-70b-versatile" }
func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

// mockCrawler implements driven.Crawler.
type mockCrawler struct {
	urls []string
	err  error
}

var _ driven.Crawler = (*mockCrawler)(nil)

func (m *mockCrawler) Discover(_ context.Context) ([]string, error) {
	return m.urls, m.err
}

// mockFetcher implements driven.PageFetcher with per-URL behaviour.
type mockFetcher struct {
	pages map[string]*domain.RawPage
	errs  map[string]error
}

var _ driven.PageFetcher = (*mockFetcher)(nil)

func (m *mockFetcher) Fetch(_ context.Context, url string) (*domain.RawPage, error) {
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	if page, ok := m.pages[url]; ok {
		return page, nil
	}
	return &domain.RawPage{URL: url, MIMEType: "text/html", Content: []byte("<p>page</p>")}, nil
}

// mockHandbook implements driven.HandbookSource.
type mockHandbook struct {
	page *domain.RawPage
	err  error
}

var _ driven.HandbookSource = (*mockHandbook)(nil)

func (m *mockHandbook) Load(_ context.Context) (*domain.RawPage, error) {
	return m.page, m.err
}

func (m *mockHandbook) Watch(_ context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	close(ch)
	return ch, nil
}

func (m *mockHandbook) Close() error { return nil }

// mockRegistry implements driven.NormaliserRegistry by wrapping the raw
// bytes into a document unchanged.
type mockRegistry struct {
	errs map[string]error // keyed by URL; "" matches the handbook
}

var _ driven.NormaliserRegistry = (*mockRegistry)(nil)

func (m *mockRegistry) Normalise(_ context.Context, raw *domain.RawPage) (*domain.Document, error) {
	if err, ok := m.errs[raw.URL]; ok {
		return nil, err
	}
	sourceType := domain.SourceWebsite
	if raw.URL == "" {
		sourceType = domain.SourceHandbook
	}
	return &domain.Document{
		URL:        raw.URL,
		SourceType: sourceType,
		Content:    string(raw.Content),
	}, nil
}

func (m *mockRegistry) Register(driven.Normaliser)   {}
func (m *mockRegistry) SupportedMIMETypes() []string { return []string{"text/html"} }

// mockPipeline implements driven.PostProcessorPipeline, producing a
// fixed number of passages per document.
type mockPipeline struct {
	passagesPerDoc int
	errs           map[string]error
}

var _ driven.PostProcessorPipeline = (*mockPipeline)(nil)

func (m *mockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Passage, error) {
	if err, ok := m.errs[doc.URL]; ok {
		return nil, err
	}
	n := m.passagesPerDoc
	if n == 0 {
		n = 2
	}
	passages := make([]domain.Passage, n)
	for i := range passages {
		passages[i] = domain.Passage{
			Text:       doc.Content,
			URL:        doc.URL,
			SourceType: doc.SourceType,
			Position:   i,
		}
	}
	return passages, nil
}

// mockRunStore implements driven.RunStore.
type mockRunStore struct {
	mu      sync.Mutex
	saved   []*domain.IngestReport
	saveErr error
}

var _ driven.RunStore = (*mockRunStore)(nil)

func (m *mockRunStore) SaveReport(_ context.Context, report *domain.IngestReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, report)
	return nil
}

func (m *mockRunStore) LastReport(_ context.Context) (*domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *mockRunStore) Close() error { return nil }
