package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rpattn/metaemit/internal/emitter"
	"github.com/rpattn/metaemit/internal/transport"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

// Emitter is the set of entity operations served over HTTP.
type Emitter interface {
	UpsertGlossaryTerm(ctx context.Context, req emitter.GlossaryTermRequest) error
	UpsertTag(ctx context.Context, req emitter.TagRequest) error
	UpsertUser(ctx context.Context, req emitter.UserRequest) error
	UpsertDataset(ctx context.Context, req emitter.DatasetRequest) error
	UpsertDashboard(ctx context.Context, req emitter.DashboardRequest) error
	AddDatasetTag(ctx context.Context, name, tag string) error
	RemoveDatasetTag(ctx context.Context, name, tag string) error
}

// Handler forwards JSON entity updates to the emitter.
type Handler struct {
	emitter Emitter
	log     *zap.Logger
}

func NewHandler(e Emitter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{emitter: e, log: log}
}

// Register mounts the entity routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /glossary-terms", upsert(h, "glossary term", h.emitter.UpsertGlossaryTerm, func(r emitter.GlossaryTermRequest) string { return r.Name }))
	mux.HandleFunc("POST /tags", upsert(h, "tag", h.emitter.UpsertTag, func(r emitter.TagRequest) string { return r.Name }))
	mux.HandleFunc("POST /users", upsert(h, "user", h.emitter.UpsertUser, func(r emitter.UserRequest) string { return r.Name }))
	mux.HandleFunc("POST /datasets", upsert(h, "dataset", h.emitter.UpsertDataset, func(r emitter.DatasetRequest) string { return r.Name }))
	mux.HandleFunc("POST /dashboards", upsert(h, "dashboard", h.emitter.UpsertDashboard, func(r emitter.DashboardRequest) string { return r.Name }))
	mux.HandleFunc("POST /datasets/{name}/tags/{tag}", h.datasetTag(h.emitter.AddDatasetTag))
	mux.HandleFunc("DELETE /datasets/{name}/tags/{tag}", h.datasetTag(h.emitter.RemoveDatasetTag))
}

type statusResponse struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func upsert[T any](h *Handler, kind string, apply func(context.Context, T) error, nameOf func(T) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, statusResponse{Status: "invalid", Error: err.Error()})
			return
		}
		name := nameOf(req)
		if strings.TrimSpace(name) == "" {
			writeJSON(w, http.StatusBadRequest, statusResponse{Status: "invalid", Error: kind + " name is required"})
			return
		}
		if err := apply(r.Context(), req); err != nil {
			h.writeTransportError(w, kind, name, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "emitted", Name: name})
	}
}

func (h *Handler) datasetTag(apply func(context.Context, string, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		tag := r.PathValue("tag")
		if err := apply(r.Context(), name, tag); err != nil {
			h.writeTransportError(w, "dataset tag", name, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "emitted", Name: name})
	}
}

func (h *Handler) writeTransportError(w http.ResponseWriter, kind, name string, err error) {
	status := http.StatusBadGateway
	var terr *transport.TransportError
	if errors.As(err, &terr) && terr.IsAuthError() {
		status = http.StatusUnauthorized
	}
	h.log.Warn("entity update failed", zap.String("kind", kind), zap.String("name", name), zap.Error(err))
	writeJSON(w, status, statusResponse{Status: "failed", Name: name, Error: err.Error()})
}

func decodeBody(r *http.Request, target any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
