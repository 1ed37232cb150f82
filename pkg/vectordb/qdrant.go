// Package vectordb persists embedded chunks in a vector store for
// similarity search.
package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// QdrantConfig configures the Qdrant index
type QdrantConfig struct {
	Host              string        `json:"host" yaml:"host" validate:"required"`
	Port              int           `json:"port" yaml:"port" validate:"gt=0"`
	Collection        string        `json:"collection" yaml:"collection" validate:"required"`
	Dimension         int           `json:"dimension" yaml:"dimension" validate:"gt=0"`
	ConnectionTimeout time.Duration `json:"connection_timeout" yaml:"connection_timeout"`
	MaxRetries        int           `json:"max_retries" yaml:"max_retries"`
	RetryInterval     time.Duration `json:"retry_interval" yaml:"retry_interval"`
	ScoreThreshold    float32       `json:"score_threshold" yaml:"score_threshold"`
	DefaultTopK       int           `json:"default_top_k" yaml:"default_top_k"`
}

// DefaultQdrantConfig returns a local-instance config
func DefaultQdrantConfig() *QdrantConfig {
	return &QdrantConfig{
		Host:              "localhost",
		Port:              6334,
		Collection:        "chunks",
		Dimension:         1536,
		ConnectionTimeout: 10 * time.Second,
		MaxRetries:        3,
		RetryInterval:     2 * time.Second,
		DefaultTopK:       10,
	}
}

// SearchResult is one hit from a similarity search
type SearchResult struct {
	ID      string                 `json:"id"`
	Score   float32                `json:"score"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// QdrantIndex stores embedded chunks in Qdrant over gRPC
type QdrantIndex struct {
	config *QdrantConfig
	conn   *grpc.ClientConn
}

// NewQdrantIndex creates an index client. Call Connect before use.
func NewQdrantIndex(config *QdrantConfig) (*QdrantIndex, error) {
	if config == nil {
		config = DefaultQdrantConfig()
	}
	if config.Host == "" || config.Port <= 0 {
		return nil, errors.NewConfigError("qdrant host and port are required", nil)
	}
	if config.Dimension <= 0 {
		return nil, errors.NewConfigError("qdrant vector dimension must be positive", nil)
	}
	return &QdrantIndex{config: config}, nil
}

// Connect establishes the gRPC connection with exponential backoff
func (q *QdrantIndex) Connect(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", q.config.Host, q.config.Port)

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	operation := func() error {
		dialCtx, cancel := context.WithTimeout(ctx, q.config.ConnectionTimeout)
		defer cancel()

		conn, err := grpc.DialContext(dialCtx, address, opts...)
		if err != nil {
			return fmt.Errorf("failed to connect to qdrant at %s: %w", address, err)
		}
		q.conn = conn
		return nil
	}

	retryConfig := backoff.NewExponentialBackOff()
	retryConfig.MaxElapsedTime = time.Duration(q.config.MaxRetries) * q.config.RetryInterval

	if err := backoff.Retry(operation, backoff.WithContext(retryConfig, ctx)); err != nil {
		return errors.NewConnectionError("qdrant connection failed after retries", err)
	}

	return nil
}

// Close closes the gRPC connection
func (q *QdrantIndex) Close() error {
	if q.conn == nil {
		return nil
	}
	err := q.conn.Close()
	q.conn = nil
	return err
}

// HealthCheck verifies the connection by listing collections
func (q *QdrantIndex) HealthCheck(ctx context.Context) error {
	if q.conn == nil {
		return errors.NewConnectionError("not connected to qdrant", nil)
	}

	collectionsClient := qdrant.NewCollectionsClient(q.conn)
	if _, err := collectionsClient.List(ctx, &qdrant.ListCollectionsRequest{}); err != nil {
		return errors.NewConnectionError("qdrant health check failed", err)
	}
	return nil
}

// EnsureCollection creates the configured collection if it does not exist.
// Vectors use cosine distance.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	collectionsClient := qdrant.NewCollectionsClient(q.conn)

	existsResp, err := collectionsClient.CollectionExists(ctx, &qdrant.CollectionExistsRequest{
		CollectionName: q.config.Collection,
	})
	if err != nil {
		return errors.NewConnectionError("failed to check collection existence", err)
	}
	if existsResp.GetResult().GetExists() {
		return nil
	}

	req := &qdrant.CreateCollection{
		CollectionName: q.config.Collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(q.config.Dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}

	if _, err := collectionsClient.Create(ctx, req); err != nil {
		return errors.NewConnectionError(
			fmt.Sprintf("failed to create collection %s", q.config.Collection), err)
	}

	return nil
}

// IndexChunks upserts chunks into the collection. The contextual embedding
// is preferred when present; chunks with no embedding at all are rejected.
func (q *QdrantIndex) IndexChunks(ctx context.Context, chunks []*chunkers.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		vector := chunk.ContextualEmbedding
		if len(vector) == 0 {
			vector = chunk.Embedding
		}
		if len(vector) == 0 {
			return errors.NewValidationError(
				fmt.Sprintf("chunk %d has no embedding to index", chunk.Index))
		}

		id := chunk.ID
		if id == "" {
			id = uuid.New().String()
		}

		points[i] = &qdrant.PointStruct{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: id},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: vector},
				},
			},
			Payload: chunkPayload(chunk),
		}
	}

	pointsClient := qdrant.NewPointsClient(q.conn)
	_, err := pointsClient.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.config.Collection,
		Points:         points,
	})
	if err != nil {
		return errors.NewConnectionError("failed to upsert chunks", err)
	}

	return nil
}

// Search returns the closest chunks to the query vector
func (q *QdrantIndex) Search(ctx context.Context, vector types.EmbeddingVector, limit int) ([]SearchResult, error) {
	if len(vector) == 0 {
		return nil, errors.NewValidationError("search vector cannot be empty")
	}
	if limit <= 0 {
		limit = q.config.DefaultTopK
	}

	req := &qdrant.SearchPoints{
		CollectionName: q.config.Collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: false}},
	}
	if q.config.ScoreThreshold > 0 {
		threshold := q.config.ScoreThreshold
		req.ScoreThreshold = &threshold
	}

	pointsClient := qdrant.NewPointsClient(q.conn)
	resp, err := pointsClient.Search(ctx, req)
	if err != nil {
		return nil, errors.NewConnectionError("qdrant search failed", err)
	}

	results := make([]SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		result := SearchResult{
			Score:   point.GetScore(),
			Payload: make(map[string]interface{}, len(point.GetPayload())),
		}
		if id := point.GetId(); id != nil {
			result.ID = id.GetUuid()
		}
		for key, value := range point.GetPayload() {
			result.Payload[key] = fromPayloadValue(value)
		}
		results = append(results, result)
	}

	return results, nil
}

// DeleteChunks removes points by chunk ID
func (q *QdrantIndex) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.NewValidationError("ids list cannot be empty")
	}

	pointIds := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIds[i] = &qdrant.PointId{
			PointIdOptions: &qdrant.PointId_Uuid{Uuid: id},
		}
	}

	pointsClient := qdrant.NewPointsClient(q.conn)
	_, err := pointsClient.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.config.Collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIds},
			},
		},
	})
	if err != nil {
		return errors.NewConnectionError("failed to delete chunks", err)
	}

	return nil
}

// chunkPayload flattens a chunk into a Qdrant payload. Embeddings are
// carried in the vector, not the payload.
func chunkPayload(chunk *chunkers.Chunk) map[string]*qdrant.Value {
	hierarchy := make([]*qdrant.Value, len(chunk.Hierarchy))
	for i, h := range chunk.Hierarchy {
		hierarchy[i] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: h}}
	}

	payload := map[string]*qdrant.Value{
		"text":        {Kind: &qdrant.Value_StringValue{StringValue: chunk.Text}},
		"index":       {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(chunk.Index)}},
		"start_index": {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(chunk.StartIndex)}},
		"end_index":   {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(chunk.EndIndex)}},
		"strategy":    {Kind: &qdrant.Value_StringValue{StringValue: string(chunk.Strategy)}},
	}

	if chunk.Heading != "" {
		payload["heading"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: chunk.Heading}}
	}
	if len(hierarchy) > 0 {
		payload["hierarchy"] = &qdrant.Value{
			Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: hierarchy}},
		}
	}
	if chunk.ContextBefore != "" {
		payload["context_before"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: chunk.ContextBefore}}
	}
	if chunk.ContextAfter != "" {
		payload["context_after"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: chunk.ContextAfter}}
	}

	return payload
}

// fromPayloadValue converts a Qdrant payload value back to a Go value
func fromPayloadValue(value *qdrant.Value) interface{} {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		items := make([]interface{}, len(v.ListValue.GetValues()))
		for i, item := range v.ListValue.GetValues() {
			items[i] = fromPayloadValue(item)
		}
		return items
	default:
		return nil
	}
}
