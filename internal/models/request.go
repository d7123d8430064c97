package models

import (
	"strings"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

// EmbeddingRequest is the body of the ingestion routes.
type EmbeddingRequest struct {
	User  string   `json:"user"`
	Texts []string `json:"texts"`
}

// Validate reports a bad_request error when the user is missing.
func (r *EmbeddingRequest) Validate() error {
	if strings.TrimSpace(r.User) == "" {
		return errortypes.BadRequest("user is required")
	}
	return nil
}

// QueryRequest is the body of the query routes.
type QueryRequest struct {
	User       string   `json:"user"`
	QueryTexts []string `json:"query_texts"`
}

// Validate reports a bad_request error when the user is missing.
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.User) == "" {
		return errortypes.BadRequest("user is required")
	}
	return nil
}
