package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswatch/watcher/internal/core/domain"
)

type stubProcessor struct {
	name string
	fn   func(doc *domain.Document, passages []domain.Passage) ([]domain.Passage, error)
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, doc *domain.Document, passages []domain.Passage) ([]domain.Passage, error) {
	return s.fn(doc, passages)
}

func TestPipeline_RunsProcessorsInOrder(t *testing.T) {
	creator := &stubProcessor{
		name: "creator",
		fn: func(doc *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
			return []domain.Passage{{Text: doc.Content}}, nil
		},
	}
	upper := &stubProcessor{
		name: "annotator",
		fn: func(_ *domain.Document, passages []domain.Passage) ([]domain.Passage, error) {
			for i := range passages {
				passages[i].Text += "!"
			}
			return passages, nil
		},
	}

	pipeline := NewPipeline(creator, upper)
	passages, err := pipeline.Process(context.Background(), &domain.Document{Content: "hello"})
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "hello!", passages[0].Text)
}

func TestPipeline_NilDocument(t *testing.T) {
	pipeline := NewPipeline()
	passages, err := pipeline.Process(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, passages)
}

func TestPipeline_ProcessorErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	failing := &stubProcessor{
		name: "failing",
		fn: func(_ *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
			return nil, boom
		},
	}

	pipeline := NewPipeline(failing)
	passages, err := pipeline.Process(context.Background(), &domain.Document{Content: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "processor failing")
	assert.Nil(t, passages)
}

func TestPipeline_Add(t *testing.T) {
	pipeline := NewPipeline()
	assert.Equal(t, 0, pipeline.Len())

	pipeline.Add(&stubProcessor{name: "one", fn: func(_ *domain.Document, p []domain.Passage) ([]domain.Passage, error) {
		return p, nil
	}})
	assert.Equal(t, 1, pipeline.Len())
}
