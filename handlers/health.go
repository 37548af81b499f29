package handlers

import (
	"net/http"

	"customerdash/backend/store"
)

// Health handles GET /health
func Health(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"records": len(st.Records()),
		})
	}
}
