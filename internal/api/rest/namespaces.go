package rest

import (
	"net/http"
)

// ListNamespaces handles GET /namespaces. Returns namespace names sorted
// ascending, for the workload picker.
func (h *Handler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	names, err := h.namespaces.Namespaces(r.Context())
	if err != nil {
		h.respondProviderError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"namespaces": names})
}
