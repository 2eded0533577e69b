package typesense

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
}

// Document is a knowledge-base article as stored in Typesense.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Hit is a search result ordered by relevance, best first.
type Hit struct {
	Document Document
	Rank     int
}

type SearchQuery struct {
	Text     string
	Category string
	Limit    int
}

type Client interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, doc Document) error
	Search(ctx context.Context, q SearchQuery) ([]Hit, error)
}

type client struct {
	ts         *typesense.Client
	collection string
}

func New(cfg Config) (Client, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("typesense url and api key required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("typesense collection name required")
	}
	ts := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
	)
	return &client{ts: ts, collection: cfg.Collection}, nil
}

func (c *client) EnsureCollection(ctx context.Context) error {
	_, err := c.ts.Collections().Create(ctx, &api.CollectionSchema{
		Name: c.collection,
		Fields: []api.Field{
			{Name: "title", Type: "string"},
			{Name: "content", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True()},
		},
	})
	if err != nil {
		// Already-exists is fine; anything else is not.
		if _, getErr := c.ts.Collection(c.collection).Retrieve(ctx); getErr == nil {
			return nil
		}
		return fmt.Errorf("create collection %s: %w", c.collection, err)
	}
	return nil
}

func (c *client) Upsert(ctx context.Context, doc Document) error {
	_, err := c.ts.Collection(c.collection).Documents().Upsert(ctx, doc)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

func (c *client) Search(ctx context.Context, q SearchQuery) ([]Hit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}
	params := &api.SearchCollectionParams{
		Q:       pointer.String(q.Text),
		QueryBy: pointer.String("title,content"),
		PerPage: pointer.Int(limit),
	}
	if q.Category != "" {
		params.FilterBy = pointer.String(fmt.Sprintf("category:=%s", q.Category))
	}

	result, err := c.ts.Collection(c.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", c.collection, err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	hits := make([]Hit, 0, len(*result.Hits))
	for rank, h := range *result.Hits {
		if h.Document == nil {
			continue
		}
		doc := *h.Document
		hits = append(hits, Hit{
			Document: Document{
				ID:       stringField(doc, "id"),
				Title:    stringField(doc, "title"),
				Content:  stringField(doc, "content"),
				Category: stringField(doc, "category"),
			},
			Rank: rank,
		})
	}
	return hits, nil
}

func stringField(doc map[string]interface{}, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}
