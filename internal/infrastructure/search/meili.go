package search

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxIssues = "newsletter_issues"

// IssueRecord is the search document for a published issue.
type IssueRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	BannerText  string   `json:"bannerText"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	PublishedAt int64    `json:"publishedAt"`
}

// Result is a single search hit.
type Result struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	BannerText string  `json:"bannerText"`
	Score      float64 `json:"score"`
}

// Meili indexes published issues in Meilisearch.
// Degrades gracefully: when the search backend is down, indexing calls
// fail silently (logged) and searches return an error the handler maps
// to 503. The daily reindex job repairs any drift afterwards.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates the client and configures the issue index.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxIssues,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxIssues, err)
	}

	index := m.client.Index(idxIssues)

	filterable := []interface{}{"status", "tags"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs: %v", err)
	}

	searchable := []string{"title", "bannerText", "tags"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs: %v", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// IndexIssue pushes one issue record. Called on publish and by the
// reindex job; best-effort from the caller's perspective.
func (m *Meili) IndexIssue(rec IssueRecord) error {
	if !m.healthy.Load() {
		return fmt.Errorf("meilisearch unhealthy")
	}
	_, err := m.client.Index(idxIssues).AddDocuments([]IssueRecord{rec}, nil)
	return err
}

// IndexIssues pushes a batch of records (reindex job).
func (m *Meili) IndexIssues(recs []IssueRecord) error {
	if !m.healthy.Load() {
		return fmt.Errorf("meilisearch unhealthy")
	}
	if len(recs) == 0 {
		return nil
	}
	_, err := m.client.Index(idxIssues).AddDocuments(recs, nil)
	return err
}

// RemoveIssue drops an issue from the index (unpublish/archive/delete).
func (m *Meili) RemoveIssue(id string) error {
	if !m.healthy.Load() {
		return fmt.Errorf("meilisearch unhealthy")
	}
	_, err := m.client.Index(idxIssues).DeleteDocument(id, nil)
	return err
}

// Search queries published issues.
func (m *Meili) Search(q string, limit, offset int) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	if limit <= 0 {
		limit = 20
	}

	resp, err := m.client.Index(idxIssues).Search(q, &meili.SearchRequest{
		Limit:            int64(limit),
		Offset:           int64(offset),
		Filter:           []string{`status = "published"`},
		ShowRankingScore: true,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		doc := map[string]interface{}{}
		if err := hit.Decode(&doc); err != nil {
			continue
		}
		r := Result{}
		if v, ok := doc["id"].(string); ok {
			r.ID = v
		}
		if v, ok := doc["title"].(string); ok {
			r.Title = v
		}
		if v, ok := doc["bannerText"].(string); ok {
			r.BannerText = v
		}
		if v, ok := doc["_rankingScore"].(float64); ok {
			r.Score = v
		}
		results = append(results, r)
	}

	return results, int(resp.EstimatedTotalHits), nil
}
