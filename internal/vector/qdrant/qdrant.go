// Package qdrant implements vector.Repository against a Qdrant server for
// deployments that share one guide collection across hosts.
package qdrant

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tripnexus/tripnexus/internal/vector"
)

// Repository implements vector.Repository using Qdrant.
type Repository struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	seq         atomic.Int64
}

// New creates a Qdrant-backed repository and ensures the collection exists
// with the given vector dimensionality.
func New(ctx context.Context, host string, port int, collection string, dims uint64) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	r := &Repository{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}
	r.seq.Store(time.Now().UnixNano())
	if err := r.ensureCollection(ctx, dims); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureCollection(ctx context.Context, dims uint64) error {
	resp, err := r.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("qdrant collection check: %w", err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}
	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{Size: dims, Distance: pb.Distance_Cosine},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant collection create: %w", err)
	}
	return nil
}

// Upsert appends documents to the collection. Each point carries the chunk
// text and metadata as payload plus an insertion sequence for tie-breaks.
func (r *Repository) Upsert(ctx context.Context, docs []vector.Document) error {
	points := make([]*pb.PointStruct, len(docs))
	for i, d := range docs {
		seq := r.seq.Add(1)
		payload := map[string]*pb.Value{
			"content": {Kind: &pb.Value_StringValue{StringValue: d.Content}},
			"seq":     {Kind: &pb.Value_IntegerValue{IntegerValue: seq}},
		}
		for k, v := range d.Metadata {
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: d.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: d.Vector}}},
			Payload: payload,
		}
	}

	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
		Wait:           &wait,
	})
	return err
}

// Search returns the top-k nearest points under the collection's cosine
// metric.
func (r *Repository) Search(ctx context.Context, vec []float32, topK int) ([]vector.SearchResult, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vec,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	results := make([]vector.SearchResult, len(resp.Result))
	for i, pt := range resp.Result {
		content := ""
		var seq int64
		meta := make(map[string]string)
		for k, v := range pt.Payload {
			switch k {
			case "content":
				content = v.GetStringValue()
			case "seq":
				seq = v.GetIntegerValue()
			default:
				meta[k] = v.GetStringValue()
			}
		}
		results[i] = vector.SearchResult{
			ID:       pt.Id.GetUuid(),
			Score:    pt.Score,
			Content:  content,
			Metadata: meta,
			Seq:      seq,
		}
	}
	return results, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error { return r.conn.Close() }

var _ vector.Repository = (*Repository)(nil)
