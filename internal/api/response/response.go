package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wonny/sectorwatch/internal/pkg/reqctx"
)

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

// Meta represents metadata in response
type Meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Count     int       `json:"count,omitempty"`
}

// Success sends a 200 response with data
func Success(w http.ResponseWriter, r *http.Request, data interface{}) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data, Meta: newMeta(r, "")})
}

// SuccessList sends a 200 response with list data and count
func SuccessList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	meta := newMeta(r, "")
	meta.Count = count
	JSON(w, http.StatusOK, SuccessResponse{Data: data, Meta: meta})
}

// SuccessWithMessage sends a 200 response with data and message
func SuccessWithMessage(w http.ResponseWriter, r *http.Request, data interface{}, message string) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data, Meta: newMeta(r, message)})
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, r *http.Request, data interface{}, message string) {
	JSON(w, http.StatusCreated, SuccessResponse{Data: data, Meta: newMeta(r, message)})
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func newMeta(r *http.Request, message string) Meta {
	return Meta{
		RequestID: reqctx.RequestID(r.Context()),
		Timestamp: time.Now(),
		Message:   message,
	}
}
