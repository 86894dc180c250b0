// Package qdrant ranks passages with a Qdrant collection holding the corpus
// embeddings. Results carry the same ordering guarantees as the in-memory
// ranker.
package qdrant

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"hymnsearch/internal/domain"
	"hymnsearch/internal/ranker"
)

const (
	payloadLabel    = "label"
	payloadText     = "text"
	payloadPosition = "position"

	upsertBatch = 256
	// extra candidates fetched so ties at the cut are resolved by position;
	// the window doubles while the last candidate still ties the cut score
	tieSlack = 8
)

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// Ranker queries a Qdrant collection populated by Sync.
type Ranker struct {
	client     *qdrant.Client
	collection string
	corpus     ranker.Corpus
	encoder    domain.Encoder
}

func New(cfg Config, c ranker.Corpus, enc domain.Encoder) (*Ranker, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "hymns"
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &Ranker{client: client, collection: cfg.Collection, corpus: c, encoder: enc}, nil
}

func (r *Ranker) Close() error { return r.client.Close() }

// Init creates the collection with cosine distance when it does not exist.
func (r *Ranker) Init(ctx context.Context) (bool, error) {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(r.corpus.Dimension()),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("create collection: %w", err)
	}
	return false, nil
}

// Sync uploads every corpus row, keyed by its position. It returns the number
// of points written.
func (r *Ranker) Sync(ctx context.Context) (int, error) {
	if _, err := r.Init(ctx); err != nil {
		return 0, err
	}
	rows := r.corpus.Matrix()
	for start := 0; start < len(rows); start += upsertBatch {
		end := min(start+upsertBatch, len(rows))
		pts := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			pts = append(pts, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(i)),
				Vectors: qdrant.NewVectors(rows[i]...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadLabel:    string(r.corpus.LabelAt(i)),
					payloadText:     r.corpus.TextAt(i),
					payloadPosition: i,
				}),
			})
		}
		wait := true
		if _, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: r.collection,
			Wait:           &wait,
			Points:         pts,
		}); err != nil {
			return start, fmt.Errorf("upsert rows %d-%d: %w", start, end-1, err)
		}
	}
	return len(rows), nil
}

// Clear drops the collection.
func (r *Ranker) Clear(ctx context.Context) error {
	return r.client.DeleteCollection(ctx, r.collection)
}

// Rank encodes search and asks Qdrant for the nearest passages.
func (r *Ranker) Rank(ctx context.Context, search string, topK int) ([]domain.RankedResult, error) {
	n := r.corpus.Len()
	if n == 0 {
		return nil, nil
	}
	topK = ranker.ClampTopK(topK, n)

	vec, err := r.encoder.Encode(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(vec) != r.corpus.Dimension() {
		return nil, fmt.Errorf("encoder %s produced dimension %d, corpus has %d",
			r.encoder.Name(), len(vec), r.corpus.Dimension())
	}

	var points []*qdrant.ScoredPoint
	for limit := min(topK+tieSlack, n); ; limit = min(limit*2, n) {
		points, err = r.query(ctx, vec, limit)
		if err != nil {
			return nil, err
		}
		if limit >= n || !tiedPastWindow(points, topK, limit) {
			break
		}
	}

	out := make([]domain.RankedResult, 0, len(points))
	for _, p := range points {
		res, err := resultFromPoint(p)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	ranker.Sort(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (r *Ranker) query(ctx context.Context, vec []float32, limit int) ([]*qdrant.ScoredPoint, error) {
	l := uint64(limit)
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Limit:          &l,
		Query:          qdrant.NewQuery(vec...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}
	return points, nil
}

// tiedPastWindow reports whether a full window of score-ordered points ends
// on the cut score, so unseen points may tie the last kept result.
func tiedPastWindow(points []*qdrant.ScoredPoint, topK, limit int) bool {
	if len(points) < limit || len(points) <= topK {
		return false
	}
	return points[len(points)-1].GetScore() == points[topK-1].GetScore()
}

func resultFromPoint(p *qdrant.ScoredPoint) (domain.RankedResult, error) {
	res := domain.RankedResult{Score: float64(p.GetScore())}
	pos, ok := p.GetPayload()[payloadPosition]
	if !ok {
		return res, errors.New("qdrant point without position payload")
	}
	switch v := convertValue(pos).(type) {
	case int64:
		res.Position = int(v)
	case float64:
		res.Position = int(v)
	default:
		return res, fmt.Errorf("qdrant position payload has type %T", v)
	}
	if v, ok := convertValue(p.GetPayload()[payloadLabel]).(string); ok {
		res.Label = domain.PassageID(v)
	}
	if v, ok := convertValue(p.GetPayload()[payloadText]).(string); ok {
		res.Text = v
	}
	return res, nil
}

func convertValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))
		for i, lv := range val.ListValue.Values {
			out[i] = convertValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any, len(val.StructValue.Fields))
		for k, nv := range val.StructValue.Fields {
			out[k] = convertValue(nv)
		}
		return out
	}
	return nil
}
