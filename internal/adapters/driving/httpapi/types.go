package httpapi

import (
	"math"
	"time"

	"github.com/halcyon-labs/docvault/internal/core/domain"
)

// Query defaults applied when the request omits them.
const (
	DefaultK              = 3
	DefaultScoreThreshold = 0.6
)

// queryRequest is the POST /query body. K and ScoreThreshold are
// pointers so "absent" and "zero" stay distinguishable.
type queryRequest struct {
	Question       string       `json:"question"`
	K              *int         `json:"k,omitempty"`
	ScoreThreshold *float64     `json:"score_threshold,omitempty"`
	Filter         *queryFilter `json:"filter,omitempty"`
}

// queryFilter is the optional metadata predicate of a query.
type queryFilter struct {
	Source  string `json:"source,omitempty"`
	MinPage *int   `json:"min_page,omitempty"`
	MaxPage *int   `json:"max_page,omitempty"`
}

// sourceItem is one retrieved source on the wire.
type sourceItem struct {
	ChunkID    string    `json:"chunk_id"`
	Source     string    `json:"source"`
	PageNumber *int      `json:"page_number,omitempty"`
	DateAdded  time.Time `json:"date_added"`
	Similarity float64   `json:"similarity"`
	Snippet    string    `json:"snippet"`
}

// queryResponse is the POST /query response body.
type queryResponse struct {
	Answer           string       `json:"answer"`
	Sources          []sourceItem `json:"sources"`
	GenerationFailed bool         `json:"generation_failed,omitempty"`
	Retryable        bool         `json:"retryable,omitempty"`
}

// ingestResponse is the POST /ingest response body.
type ingestResponse struct {
	InsertedChunks    int             `json:"inserted_chunks"`
	TotalTokensApprox int             `json:"total_tokens_approx"`
	VectorDim         int             `json:"vector_dim"`
	ChunkIDs          []string        `json:"chunk_ids"`
	Failures          []ingestFailure `json:"failures,omitempty"`
}

// ingestFailure reports one document that could not be ingested.
type ingestFailure struct {
	Source    string `json:"source"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// deleteResponse is the DELETE /documents/{source} response body.
type deleteResponse struct {
	Source        string `json:"source"`
	DeletedChunks int    `json:"deleted_chunks"`
}

// healthResponse is the GET /health response body.
type healthResponse struct {
	Status         string `json:"status"`
	EmbeddingModel string `json:"embedding_model"`
	LLMModel       string `json:"llm_model,omitempty"`
	VectorDim      int    `json:"vector_dim"`
}

// statsResponse is the GET /stats response body.
type statsResponse struct {
	Chunks     int `json:"chunks"`
	Dimensions int `json:"dimensions"`
}

// historyItem is one stored query on the wire.
type historyItem struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Answer    string       `json:"answer"`
	Sources   []sourceItem `json:"sources"`
	CreatedAt time.Time    `json:"created_at"`
}

// historyResponse is the GET /history response body.
type historyResponse struct {
	Records []historyItem `json:"records"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func toSourceItems(sources []domain.RetrievedSource) []sourceItem {
	items := make([]sourceItem, len(sources))
	for i, s := range sources {
		items[i] = sourceItem{
			ChunkID:    s.ChunkID,
			Source:     s.Source,
			PageNumber: s.PageNumber,
			DateAdded:  s.DateAdded,
			Similarity: roundSimilarity(s.Similarity),
			Snippet:    s.Snippet,
		}
	}
	return items
}

// roundSimilarity rounds to 4 decimals for the wire. Threshold
// comparison happens at full precision before this point.
func roundSimilarity(v float64) float64 {
	return math.Round(v*10000) / 10000
}
