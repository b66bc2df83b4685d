package rest

import (
	"fmt"
	"net/http"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/export"
)

// ExportGraph handles GET /topology/{namespace}/{kind}/{name}/export.
// The format query parameter selects json (default), svg, dot, or drawio;
// the remaining graph query parameters apply as for the graph endpoint.
func (h *Handler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	namespace, kind, name, ok := pathWorkload(r)
	if !ok || name == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown workload kind")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	filters, view, err := parseGraphQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	graph, err := h.buildGraph(r, namespace, kind, name, filters, view)
	if err != nil {
		h.respondProviderError(w, r, err)
		return
	}

	var (
		body        []byte
		contentType string
		ext         string
	)
	switch format {
	case "json":
		body, err = export.GraphToJSON(graph)
		contentType, ext = "application/json", "json"
	case "svg":
		body, err = export.GraphToSVG(graph)
		contentType, ext = "image/svg+xml", "svg"
	case "dot":
		body, err = export.GraphToDOT(graph)
		contentType, ext = "text/vnd.graphviz", "dot"
	case "drawio":
		body, err = export.GraphToDrawioXML(graph)
		contentType, ext = "application/xml", "drawio"
	default:
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "format must be json, svg, dot, or drawio")
		return
	}
	if err != nil {
		h.log.Error("export failed", "format", format, "error", err)
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s-%s-topology.%s", namespace, name, ext))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
