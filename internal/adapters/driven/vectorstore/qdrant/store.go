// Package qdrant provides a vector store adapter backed by Qdrant's
// gRPC API.
//
// Passages are stored as points whose payload carries the chunk text,
// the source URL and the source type. Keyword indexes on url and
// source_type make the per-page delete-then-insert refresh cheap.
package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// UpsertBatchSize bounds one upsert request. Large uploads go through
// in slices so a slow network never times out a whole ingest.
const UpsertBatchSize = 50

// Payload field names.
const (
	fieldText       = "text"
	fieldURL        = "url"
	fieldSourceType = "source_type"
)

// Config holds connection settings for Qdrant.
type Config struct {
	// Host is the Qdrant gRPC host (default: localhost).
	Host string

	// Port is the gRPC port (default: 6334).
	Port int

	// Collection is the collection name (default: knowledge_base).
	Collection string

	// APIKey is sent as the api-key metadata header when set.
	APIKey string

	// UseTLS dials with transport security. Required for hosted Qdrant;
	// the api-key header must not travel in clear text.
	UseTLS bool
}

// Store talks to one Qdrant collection.
type Store struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	apiKey      string
}

// New connects to Qdrant and returns a store for the configured
// collection. The connection is lazy; the first RPC dials.
func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "knowledge_base"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(transportCredentials(cfg)))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", addr, err)
	}

	return &Store{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  cfg.Collection,
		apiKey:      cfg.APIKey,
	}, nil
}

// transportCredentials selects TLS or plaintext per the config.
func transportCredentials(cfg Config) credentials.TransportCredentials {
	if cfg.UseTLS {
		return credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return insecure.NewCredentials()
}

// withAuth attaches the api-key header when one is configured.
func (s *Store) withAuth(ctx context.Context) context.Context {
	if s.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
}

// EnsureCollection creates the collection with cosine distance and the
// keyword payload indexes. Safe to call on every run; existing
// collections and indexes are left alone.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int) error {
	ctx = s.withAuth(ctx)

	list, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	exists := false
	for _, col := range list.GetCollections() {
		if col.GetName() == s.collection {
			exists = true
			break
		}
	}

	if !exists {
		_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: &qdrantclient.VectorsConfig{
				Config: &qdrantclient.VectorsConfig_Params{
					Params: &qdrantclient.VectorParams{
						Size:     uint64(dimensions),
						Distance: qdrantclient.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", s.collection, err)
		}
	}

	for _, field := range []string{fieldURL, fieldSourceType} {
		_, err = s.points.CreateFieldIndex(ctx, &qdrantclient.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrantclient.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", field, err)
		}
	}

	return nil
}

// Upsert inserts passages in batches.
func (s *Store) Upsert(ctx context.Context, passages []domain.Passage) error {
	ctx = s.withAuth(ctx)

	for start := 0; start < len(passages); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(passages) {
			end = len(passages)
		}

		batch := make([]*qdrantclient.PointStruct, 0, end-start)
		for _, passage := range passages[start:end] {
			batch = append(batch, pointFromPassage(passage))
		}

		_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: s.collection,
			Points:         batch,
		})
		if err != nil {
			return fmt.Errorf("upsert batch at %d: %w: %v", start, domain.ErrIndex, err)
		}
	}

	return nil
}

// DeleteByURL removes all passages for exactly this URL.
func (s *Store) DeleteByURL(ctx context.Context, url string) error {
	filter := &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{keywordCondition(fieldURL, url)},
	}
	return s.deleteByFilter(s.withAuth(ctx), filter, fmt.Sprintf("delete url %s", url))
}

// DeleteBySourceType removes all passages of one source type.
func (s *Store) DeleteBySourceType(ctx context.Context, sourceType domain.SourceType) error {
	filter := &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{keywordCondition(fieldSourceType, string(sourceType))},
	}
	return s.deleteByFilter(s.withAuth(ctx), filter, fmt.Sprintf("delete source type %s", sourceType))
}

// DeleteStaleWebsite removes website passages whose URL is not in
// keepURLs, sweeping pages that dropped out of the crawl set.
func (s *Store) DeleteStaleWebsite(ctx context.Context, keepURLs []string) error {
	filter := &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{
			keywordCondition(fieldSourceType, string(domain.SourceWebsite)),
		},
		MustNot: []*qdrantclient.Condition{
			{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key: fieldURL,
						Match: &qdrantclient.Match{
							MatchValue: &qdrantclient.Match_Keywords{
								Keywords: &qdrantclient.RepeatedStrings{Strings: keepURLs},
							},
						},
					},
				},
			},
		},
	}
	return s.deleteByFilter(s.withAuth(ctx), filter, "delete stale website passages")
}

// Search returns up to k nearest passages with score >= minScore.
func (s *Store) Search(ctx context.Context, vector []float32, k int, minScore float32) ([]domain.ScoredPassage, error) {
	ctx = s.withAuth(ctx)

	req := &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if minScore > 0 {
		req.ScoreThreshold = &minScore
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w: %v", domain.ErrIndex, err)
	}

	hits := make([]domain.ScoredPassage, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		payload := point.GetPayload()
		hits = append(hits, domain.ScoredPassage{
			Passage: domain.Passage{
				ID:         pointIDString(point.GetId()),
				Text:       payload[fieldText].GetStringValue(),
				URL:        payload[fieldURL].GetStringValue(),
				SourceType: domain.SourceType(payload[fieldSourceType].GetStringValue()),
			},
			Score: point.GetScore(),
		})
	}
	return hits, nil
}

// Count returns the number of stored passages, optionally for one URL.
func (s *Store) Count(ctx context.Context, url string) (uint64, error) {
	ctx = s.withAuth(ctx)

	req := &qdrantclient.CountPoints{
		CollectionName: s.collection,
	}
	if url != "" {
		req.Filter = &qdrantclient.Filter{
			Must: []*qdrantclient.Condition{keywordCondition(fieldURL, url)},
		}
	}

	resp, err := s.points.Count(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("count: %w: %v", domain.ErrIndex, err)
	}
	return resp.GetResult().GetCount(), nil
}

// Close tears down the gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) deleteByFilter(ctx context.Context, filter *qdrantclient.Filter, op string) error {
	_, err := s.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrIndex, err)
	}
	return nil
}

func keywordCondition(key, value string) *qdrantclient.Condition {
	return &qdrantclient.Condition{
		ConditionOneOf: &qdrantclient.Condition_Field{
			Field: &qdrantclient.FieldCondition{
				Key: key,
				Match: &qdrantclient.Match{
					MatchValue: &qdrantclient.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func pointFromPassage(passage domain.Passage) *qdrantclient.PointStruct {
	payload := map[string]*qdrantclient.Value{
		fieldText:       {Kind: &qdrantclient.Value_StringValue{StringValue: passage.Text}},
		fieldSourceType: {Kind: &qdrantclient.Value_StringValue{StringValue: string(passage.SourceType)}},
	}
	if passage.URL != "" {
		payload[fieldURL] = &qdrantclient.Value{
			Kind: &qdrantclient.Value_StringValue{StringValue: passage.URL},
		}
	}

	return &qdrantclient.PointStruct{
		Id: &qdrantclient.PointId{
			PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: passage.ID},
		},
		Vectors: &qdrantclient.Vectors{
			VectorsOptions: &qdrantclient.Vectors_Vector{
				Vector: &qdrantclient.Vector{Data: passage.Vector},
			},
		},
		Payload: payload,
	}
}

func pointIDString(id *qdrantclient.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}
