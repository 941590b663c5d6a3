package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/qdrant/go-client/qdrant"
)

type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

func NewQdrantStore(host string, port int, collection string) (*QdrantStore, error) {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 6334
	}
	if collection == "" {
		collection = DefaultCollection
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &QdrantStore{
		client:     client,
		collection: collection,
	}, nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	log.Printf("📦 Creating collection %s (%d, cosine)...", s.collection, vectorSize)
	if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(vectorSize),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (s *QdrantStore) UpsertBatch(ctx context.Context, points []Point) error {
	pts := make([]*qdrant.PointStruct, len(points))

	for i, p := range points {
		payload := map[string]any{
			"content":     p.Doc.Content,
			"type":        string(p.Doc.Kind),
			"source_file": p.Doc.SourceFile,
		}
		if p.Doc.ImagePath != "" {
			payload["path"] = p.Doc.ImagePath
		}

		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         pts,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query returns payloads in descending similarity order. A collection
// that does not exist yet, or a store that cannot be reached, yields an
// empty result set: at read time that is "no results", not a failure.
// A cancelled or expired context still propagates.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, limit int) ([]Document, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		log.Printf("⚠️ Vector store unreachable at search time: %v", err)
		return nil, nil
	}
	if !exists {
		return nil, nil
	}

	lim := uint64(limit)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &lim,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		log.Printf("⚠️ Search failed on %s: %v", s.collection, err)
		return nil, nil
	}

	out := make([]Document, 0, len(resp))
	for _, r := range resp {
		out = append(out, payloadToDocument(r.Payload))
	}
	return out, nil
}

func payloadToDocument(payload map[string]*qdrant.Value) Document {
	doc := Document{Kind: KindText}
	if v, ok := payload["content"]; ok {
		doc.Content = v.GetStringValue()
	}
	if v, ok := payload["type"]; ok && v.GetStringValue() != "" {
		doc.Kind = Kind(v.GetStringValue())
	}
	if v, ok := payload["path"]; ok {
		doc.ImagePath = v.GetStringValue()
	}
	if v, ok := payload["source_file"]; ok {
		doc.SourceFile = v.GetStringValue()
	}
	return doc
}
