// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/folio/internal/metrics"
	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/procedure"
)

// maxInputSize はPOSTボディの最大サイズ。エッセイ本文を収められる大きさにする。
const maxInputSize = 2 << 20

// ProcedureHandler はHTTPリクエストをプロシージャ呼び出しに変換する。
// GET /api/{path}?input=<json> はqueryのみ、POST /api/{path} はすべてのプロシージャを受け付ける。
type ProcedureHandler struct {
	root    *procedure.Root
	metrics metrics.MetricsCollector
}

// NewProcedureHandler はProcedureHandlerを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewProcedureHandler(root *procedure.Root, collector metrics.MetricsCollector) *ProcedureHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &ProcedureHandler{root: root, metrics: collector}
}

// Query はqueryプロシージャをGETで呼び出す。
// GET /api/{path}?input=<json>
func (h *ProcedureHandler) Query(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")

	ep, ok := h.root.Lookup(path)
	if !ok {
		h.fail(w, r, path, time.Now(), model.NewProcedureNotFoundError(path))
		return
	}
	if ep.Kind() == procedure.Mutation {
		w.Header().Set("Allow", http.MethodPost)
		h.fail(w, r, path, time.Now(), model.NewMethodNotAllowedError(path))
		return
	}

	var raw json.RawMessage
	if input := r.URL.Query().Get("input"); input != "" {
		raw = json.RawMessage(input)
	}
	h.serve(w, r, path, ep, raw)
}

// Call はプロシージャをPOSTで呼び出す。ボディは生のJSON入力。
// POST /api/{path}
func (h *ProcedureHandler) Call(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	start := time.Now()

	ep, ok := h.root.Lookup(path)
	if !ok {
		h.fail(w, r, path, start, model.NewProcedureNotFoundError(path))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, path, start, model.NewInvalidInputError("入力が大きすぎます"))
			return
		}
		h.fail(w, r, path, start, model.NewInvalidInputError("リクエストボディを読み取れません"))
		return
	}

	h.serve(w, r, path, ep, body)
}

// procedureInfo は /api/procedures のレスポンス要素。
type procedureInfo struct {
	Path string `json:"path"`
	Tier string `json:"tier"`
	Kind string `json:"kind"`
}

// ListProcedures は登録済みプロシージャの一覧を返す。
// GET /api/procedures
func (h *ProcedureHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	paths := h.root.Paths()
	infos := make([]procedureInfo, 0, len(paths))
	for _, path := range paths {
		ep, _ := h.root.Lookup(path)
		infos = append(infos, procedureInfo{
			Path: path,
			Tier: ep.Tier().String(),
			Kind: ep.Kind().String(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// serve はIdentityをコンテキストから取り出してプロシージャを実行し、結果を書き込む。
func (h *ProcedureHandler) serve(w http.ResponseWriter, r *http.Request, path string, ep procedure.Endpoint, raw json.RawMessage) {
	start := time.Now()
	call := procedure.NewCall(procedure.IdentityFromContext(r.Context()), w, r)

	result, err := ep.Serve(r.Context(), call, raw)
	if err != nil {
		h.fail(w, r, path, start, err)
		return
	}

	h.metrics.RecordProcedureCall(path, outcomeOf(nil), time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (h *ProcedureHandler) fail(w http.ResponseWriter, r *http.Request, path string, start time.Time, err error) {
	h.metrics.RecordProcedureCall(metricsPath(h.root, path), outcomeOf(err), time.Since(start))
	handleProcedureError(w, r, path, err)
}

// metricsPath は未登録のパスをまとめ、メトリクスのラベル数が増え続けないようにする。
func metricsPath(root *procedure.Root, path string) string {
	if _, ok := root.Lookup(path); ok {
		return path
	}
	return "unknown"
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
