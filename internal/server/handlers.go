package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/models"
)

// handleEmbed ingests texts and responds with a bare JSON array of IDs.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.ingest(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, ids)
}

// handleHFEmbed ingests texts and responds with {"ids": [...]}.
func (s *Server) handleHFEmbed(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.ingest(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, models.IDsResponse{IDs: ids})
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req models.EmbeddingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		s.respondErr(w, r, err)
		return nil, false
	}
	s.logger.Debug("embed request", zap.String("user", req.User), zap.Int("texts", len(req.Texts)))
	ids, err := s.indexer.Ingest(r.Context(), req.User, req.Texts)
	if err != nil {
		s.respondErr(w, r, err)
		return nil, false
	}
	return ids, true
}

// handleQuery responds with one list of hits per query chunk.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.logger.Debug("query request", zap.String("user", req.User), zap.Int("query_texts", len(req.QueryTexts)))
	results, err := s.engine.Query(r.Context(), req.User, req.QueryTexts)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	resp := make([][]models.QueryHit, len(results))
	for i, hits := range results {
		resp[i] = make([]models.QueryHit, len(hits))
		for j, h := range hits {
			resp[i][j] = models.NewQueryHit(h)
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleHFQuery responds with the chunk texts matched by the first query chunk.
func (s *Server) handleHFQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.logger.Debug("hf query request", zap.String("user", req.User), zap.Int("query_texts", len(req.QueryTexts)))
	docs, err := s.engine.QueryFirst(r.Context(), req.User, req.QueryTexts)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, docs)
}

// handleEmbedDocument ingests an uploaded file sent as multipart fields "user" and "file".
func (s *Server) handleEmbedDocument(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.respondErr(w, r, errortypes.BadRequest("invalid multipart form: %v", err))
		return
	}
	user := r.FormValue("user")
	if strings.TrimSpace(user) == "" {
		s.respondErr(w, r, errortypes.BadRequest("user is required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondErr(w, r, errortypes.BadRequest("file is required"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondErr(w, r, errortypes.BadRequest("read upload: %v", err))
		return
	}
	s.logger.Debug("embed document request",
		zap.String("user", user),
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))
	ids, err := s.indexer.IngestDocument(r.Context(), user, header.Filename, content)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.IDsResponse{IDs: ids})
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	name := s.indexer.CollectionName(user)
	info := models.CollectionInfo{User: user, Collection: name}
	exists, err := s.store.CollectionExists(r.Context(), name)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	info.Exists = exists
	if exists {
		if info.Points, err = s.store.CountPoints(r.Context(), name); err != nil {
			s.respondErr(w, r, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	emb := s.indexer.Embedder()
	chunker := s.indexer.Chunker()
	resp := map[string]interface{}{
		"embedding": map[string]interface{}{
			"provider":   emb.Name(),
			"model":      s.config.Embedding.Model,
			"dimensions": emb.Dimensions(),
		},
		"splitter": map[string]interface{}{
			"max_size": s.config.Splitter.MaxSize,
			"overlap":  s.config.Splitter.OverlapSize(),
			"mode":     chunker.Mode(),
		},
		"vectorstore": map[string]interface{}{
			"backend":           s.store.Kind(),
			"collection_prefix": s.config.VectorStore.CollectionPrefix,
		},
		"search": map[string]interface{}{
			"top_k": s.engine.TopK(),
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errortypes.BadRequest("request body is empty")
		}
		return errortypes.BadRequest("invalid request body: %v", err)
	}
	return nil
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind errortypes.Kind) int {
	switch kind {
	case errortypes.KindInvalidConfig, errortypes.KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string          `json:"error"`
	Kind  errortypes.Kind `json:"kind"`
}

func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := errortypes.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.respondJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
