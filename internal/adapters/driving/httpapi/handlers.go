// Package httpapi exposes ingestion and querying over HTTP.
//
// The handlers are a thin transport: they parse, validate, call the
// driving ports and map domain errors onto status codes. No pipeline
// logic lives here.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
	"github.com/halcyon-labs/docvault/internal/core/ports/driving"
	"github.com/halcyon-labs/docvault/internal/extractors"
	"github.com/halcyon-labs/docvault/internal/logger"
)

// maxIngestBytes caps a multipart ingest request (64 MiB).
const maxIngestBytes = 64 << 20

// defaultHistoryLimit caps GET /history when no limit is given.
const defaultHistoryLimit = 50

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	ingestor  driving.Ingestor
	retriever driving.Retriever
	composer  driving.AnswerComposer
	registry  driven.ExtractorRegistry
	index     driven.VectorIndex
	embedder  driven.EmbeddingService

	// llm and queryLog may be nil; the handlers degrade gracefully.
	llm      driven.LLMService
	queryLog driven.QueryLogStore
}

// NewHandler creates a new Handler. llm and queryLog are optional
// (can be nil).
func NewHandler(
	ingestor driving.Ingestor,
	retriever driving.Retriever,
	composer driving.AnswerComposer,
	registry driven.ExtractorRegistry,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	queryLog driven.QueryLogStore,
) *Handler {
	return &Handler{
		ingestor:  ingestor,
		retriever: retriever,
		composer:  composer,
		registry:  registry,
		index:     index,
		embedder:  embedder,
		llm:       llm,
		queryLog:  queryLog,
	}
}

// HandleIngest handles POST /ingest multipart requests.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIngestBytes)
	if err := r.ParseMultipartForm(maxIngestBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data: "+err.Error(), false)
		return
	}

	var docs []domain.Document
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			mediaType := partMediaType(header.Header.Get("Content-Type"), header.Filename)

			// Reject the whole request before any processing: a batch
			// with an unacceptable file is a malformed request.
			if _, err := h.registry.Lookup(mediaType); err != nil {
				writeError(w, http.StatusUnsupportedMediaType,
					header.Filename+": unsupported media type "+mediaType, false)
				return
			}

			file, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, header.Filename+": "+err.Error(), false)
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, header.Filename+": "+err.Error(), false)
				return
			}

			docs = append(docs, domain.Document{
				Name:      header.Filename,
				MediaType: mediaType,
				Data:      data,
			})
		}
	}

	if len(docs) == 0 {
		writeError(w, http.StatusBadRequest, "no files in request", false)
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), docs)

	var ingErr *domain.IngestError
	switch {
	case err == nil:
	case errors.As(err, &ingErr):
		// Partial failure: the result describes what succeeded.
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), false)
		return
	default:
		writeError(w, statusForError(err), err.Error(), domain.Retryable(err))
		return
	}

	resp := ingestResponse{
		InsertedChunks:    result.InsertedChunks,
		TotalTokensApprox: result.TotalTokensApprox,
		VectorDim:         result.VectorDim,
		ChunkIDs:          result.ChunkIDs,
	}
	if ingErr != nil {
		for _, f := range ingErr.Failures {
			resp.Failures = append(resp.Failures, ingestFailure{
				Source:    f.Source,
				Error:     f.Err.Error(),
				Retryable: domain.Retryable(f.Err),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// partMediaType resolves a multipart file's MIME type from its part
// header, falling back to the filename extension.
func partMediaType(header, filename string) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil &&
			mt != "application/octet-stream" {
			return mt
		}
	}
	return extractors.MediaTypeForFilename(filename)
}

// HandleQuery handles POST /query requests.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), false)
		return
	}

	opts := domain.RetrieveOptions{
		K:              DefaultK,
		ScoreThreshold: DefaultScoreThreshold,
	}
	if req.K != nil {
		opts.K = *req.K
	}
	if req.ScoreThreshold != nil {
		opts.ScoreThreshold = *req.ScoreThreshold
	}
	if req.Filter != nil {
		opts.Filter = domain.QueryFilter{
			Source:  req.Filter.Source,
			MinPage: req.Filter.MinPage,
			MaxPage: req.Filter.MaxPage,
		}
	}

	sources, err := h.retriever.Retrieve(r.Context(), req.Question, opts)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), domain.Retryable(err))
		return
	}

	answer, err := h.composer.Compose(r.Context(), req.Question, sources)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), domain.Retryable(err))
		return
	}

	h.recordQuery(r, req.Question, answer)

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:           answer.Text,
		Sources:          toSourceItems(answer.Sources),
		GenerationFailed: answer.GenerationFailed,
		Retryable:        answer.GenerationFailed,
	})
}

// recordQuery appends the query to the history store. Best effort: a
// logging store failure never fails the request.
func (h *Handler) recordQuery(r *http.Request, question string, answer *domain.Answer) {
	if h.queryLog == nil {
		return
	}
	record := domain.QueryRecord{
		Question:  question,
		Answer:    answer.Text,
		Sources:   answer.Sources,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.queryLog.Save(r.Context(), record); err != nil {
		logger.Warn("Saving query record failed: %v", err)
	}
}

// HandleDeleteDocument handles DELETE /documents/{source} requests.
func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	source := mux.Vars(r)["source"]

	deleted, err := h.ingestor.DeleteDocument(r.Context(), source)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), domain.Retryable(err))
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Source:        source,
		DeletedChunks: deleted,
	})
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:         "ok",
		EmbeddingModel: h.embedder.ModelName(),
		VectorDim:      h.index.Dimensions(),
	}
	if h.llm != nil {
		resp.LLMModel = h.llm.ModelName()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStats handles GET /stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.index.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), true)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Chunks:     count,
		Dimensions: h.index.Dimensions(),
	})
}

// HandleHistory handles GET /history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.queryLog == nil {
		writeJSON(w, http.StatusOK, historyResponse{Records: []historyItem{}})
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", false)
			return
		}
		limit = n
	}

	records, err := h.queryLog.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), true)
		return
	}

	items := make([]historyItem, len(records))
	for i, rec := range records {
		items[i] = historyItem{
			ID:        rec.ID,
			Question:  rec.Question,
			Answer:    rec.Answer,
			Sources:   toSourceItems(rec.Sources),
			CreatedAt: rec.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, historyResponse{Records: items})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrIndex),
		errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Encoding response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, retryable bool) {
	writeJSON(w, status, errorResponse{Error: message, Retryable: retryable})
}
