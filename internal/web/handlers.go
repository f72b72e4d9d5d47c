package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/JonMunkholm/userdata/internal/core"
	"github.com/JonMunkholm/userdata/internal/input"
)

// MaxBodySize bounds a single submission (64KB).
const MaxBodySize = 64 * 1024

// createUserResponse is the body of a 201 from POST /api/users.
type createUserResponse struct {
	ID   int64              `json:"id"`
	User core.ValidatedUser `json:"user"`
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
	Stage  string `json:"stage"`
}

// handleCreateUser validates and saves one user record.
// POST /api/users with a JSON object or form fields.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	raw, err := decodeRecord(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	receipt, err := s.service.Submit(r.Context(), raw)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createUserResponse{ID: receipt.ID, User: receipt.User})
}

// handleHealth reports whether the database connection is ready.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stage := s.service.Stage()
	if stage != core.StageReady {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Stage: stage.String()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Stage: stage.String()})
}

// decodeRecord reads a RawRecord from a JSON or form body.
// Unknown keys are ignored and fields that are not sent stay absent.
func decodeRecord(r *http.Request) (core.RawRecord, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(MaxBodySize); err != nil && err != http.ErrNotMultipart {
			return nil, fmt.Errorf("%w: %v", errBadBody, err)
		}
		values := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				values[k] = v[0]
			}
		}
		return collectValues(values)

	default:
		return decodeJSONRecord(r)
	}
}

func decodeJSONRecord(r *http.Request) (core.RawRecord, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", errBadBody)
	}

	values := make(map[string]string, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case nil:
			// null counts as not sent
		case string:
			values[k] = val
		case json.Number:
			values[k] = val.String()
		default:
			return nil, fmt.Errorf("%w: field %q must be a string", errBadBody, k)
		}
	}
	return collectValues(values)
}

func collectValues(values map[string]string) (core.RawRecord, error) {
	fixture, err := input.FixtureFromStrings(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	return input.Collect(fixture)
}
