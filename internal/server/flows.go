package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/history"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
)

// maxFlowBody bounds request bodies; photo and audio data URIs are inline.
const maxFlowBody = 25 << 20

// statusClientClosed is the non-standard status recorded when the caller goes
// away before the flow finishes.
const statusClientClosed = 499

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Flows.List())
}

func (s *Server) handleRunFlow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	input := map[string]any{}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFlowBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error(), "kind": string(pipeline.KindValidation)})
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must be a JSON object", "kind": string(pipeline.KindValidation)})
			return
		}
	}

	res, err := s.invoke(r.Context(), name, input)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// invoke runs a flow and records the outcome in the run log.
func (s *Server) invoke(ctx context.Context, name string, input map[string]any) (*pipeline.Result, error) {
	start := time.Now()
	res, err := s.deps.Flows.Invoke(ctx, name, input)
	if s.deps.History != nil && pipeline.KindOf(err) != pipeline.KindNotFound {
		run := history.FromResult(name, res, time.Since(start), err)
		if rerr := s.deps.History.Record(context.WithoutCancel(ctx), run); rerr != nil {
			s.logger.Warn("recording flow run", zap.String("flow", name), zap.Error(rerr))
		}
	}
	return res, err
}

// statusFor maps a flow failure to an HTTP status.
func statusFor(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindConfiguration:
		return http.StatusServiceUnavailable
	case pipeline.KindUpstream, pipeline.KindCoercion:
		return http.StatusBadGateway
	case pipeline.KindNotFound:
		return http.StatusNotFound
	case pipeline.KindCanceled:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return statusClientClosed
	}
	return http.StatusInternalServerError
}

func writeFlowError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error(), "kind": pipeline.KindOf(err)}
	var ve *pipeline.ValidationError
	if pipeline.KindOf(err) == pipeline.KindValidation && errors.As(err, &ve) {
		body["violations"] = ve.Violations
	}
	writeJSON(w, statusFor(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
