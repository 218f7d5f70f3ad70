package store

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig configures the connection to a Qdrant instance.
type QdrantConfig struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	APIKey string `json:"api_key" yaml:"api_key"`
	UseTLS bool   `json:"use_tls" yaml:"use_tls"`
}

// Qdrant implements Store over the Qdrant gRPC client.
type Qdrant struct {
	client *qdrant.Client
}

// NewQdrant connects to Qdrant. The connection is lazy; the first call
// surfaces reachability errors.
func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}
	return &Qdrant{client: client}, nil
}

func (q *Qdrant) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}
	if exists {
		info, err := q.Info(ctx, name)
		if err != nil {
			return err
		}
		if info.Dim != 0 && info.Dim != uint64(dim) {
			return fmt.Errorf("collection %s has dimension %d, configured %d", name, info.Dim, dim)
		}
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	qpoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := toQdrantPayload(p.Payload)
		if err != nil {
			return err
		}
		qpoints = append(qpoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qpoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, collection string, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error) {
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		Filter:         toQdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", collection, err)
	}

	results := make([]ScoredPoint, 0, len(hits))
	for _, h := range hits {
		results = append(results, ScoredPoint{
			ID:      pointIDString(h.Id),
			Score:   h.Score,
			Payload: fromQdrantPayload(h.Payload),
		})
	}
	return results, nil
}

func (q *Qdrant) Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) ([]Record, string, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         toQdrantFilter(filter),
		// One extra point: its ID becomes the resume cursor.
		Limit:       qdrant.PtrOf(uint32(limit) + 1),
		WithPayload: qdrant.NewWithPayload(true),
	}
	if cursor != "" {
		req.Offset = qdrant.NewID(cursor)
	}
	points, err := q.client.Scroll(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("scrolling %s: %w", collection, err)
	}

	next := ""
	if len(points) > limit {
		next = pointIDString(points[limit].Id)
		points = points[:limit]
	}

	records := make([]Record, 0, len(points))
	for _, p := range points {
		records = append(records, Record{
			ID:      pointIDString(p.Id),
			Payload: fromQdrantPayload(p.Payload),
		})
	}
	return records, next, nil
}

func (q *Qdrant) Delete(ctx context.Context, collection string, filter *Filter) (int, error) {
	count, err := q.Count(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	_, err = q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(toQdrantFilter(filter)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", collection, err)
	}
	return int(count), nil
}

func (q *Qdrant) DeleteIDs(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	qids := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		qids[i] = qdrant.NewID(id)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qids...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("deleting %d points from %s: %w", len(ids), collection, err)
	}
	return nil
}

func (q *Qdrant) Count(ctx context.Context, collection string, filter *Filter) (uint64, error) {
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         toQdrantFilter(filter),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", collection, err)
	}
	return count, nil
}

func (q *Qdrant) Drop(ctx context.Context, collection string) error {
	if err := q.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("dropping %s: %w", collection, err)
	}
	return nil
}

func (q *Qdrant) Info(ctx context.Context, collection string) (*CollectionInfo, error) {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", collection, err)
	}
	if !exists {
		return nil, fmt.Errorf("collection %s: %w", collection, ErrNotFound)
	}

	info, err := q.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", collection, err)
	}

	out := &CollectionInfo{
		Name:   collection,
		Points: info.GetPointsCount(),
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		out.Dim = params.GetSize()
		out.Distance = params.GetDistance().String()
	}
	return out, nil
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}

// --- payload and filter conversion ---

func toQdrantPayload(payload map[string]any) (map[string]*qdrant.Value, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	out := make(map[string]*qdrant.Value, len(payload))
	for k, v := range payload {
		val, err := qdrant.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("converting payload field %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, valueToAny(item))
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, item := range fields {
			out[k] = valueToAny(item)
		}
		return out
	default:
		return nil
	}
}

func toQdrantFilter(f *Filter) *qdrant.Filter {
	if f == nil || len(f.Must) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(f.Must))
	for _, c := range f.Must {
		switch m := c.Match.(type) {
		case string:
			conditions = append(conditions, qdrant.NewMatch(c.Field, m))
		case int64:
			conditions = append(conditions, qdrant.NewMatchInt(c.Field, m))
		case int:
			conditions = append(conditions, qdrant.NewMatchInt(c.Field, int64(m)))
		case bool:
			conditions = append(conditions, qdrant.NewMatchBool(c.Field, m))
		default:
			if c.GTE != nil || c.LT != nil {
				conditions = append(conditions, qdrant.NewRange(c.Field, &qdrant.Range{
					Gte: c.GTE,
					Lt:  c.LT,
				}))
			}
		}
	}
	return &qdrant.Filter{Must: conditions}
}

func pointIDString(id *qdrant.PointId) string {
	switch opt := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Uuid:
		return opt.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", opt.Num)
	default:
		return ""
	}
}
