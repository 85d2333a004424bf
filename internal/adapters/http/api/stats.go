package api

import (
	"net/http"
)

type statsBody struct {
	Total            int     `json:"total"`
	ThisWeek         int     `json:"thisWeek"`
	Last24Hours      int     `json:"last24Hours"`
	LastRegistration *string `json:"lastRegistration"`
}

type statsResponse struct {
	Success bool      `json:"success"`
	Stats   statsBody `json:"stats"`
}

// handleStats handles GET /api/stats. Responses are cacheable for five
// minutes at the edge.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	w.Header().Set("Cache-Control", "s-maxage=300, stale-while-revalidate")

	st, err := s.deps.Stats(r.Context(), ClientIP(r))
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err, "Failed to fetch stats")
		return
	}

	body := statsBody{Total: st.Total, ThisWeek: st.ThisWeek, Last24Hours: st.Last24Hours}
	if st.LastRegistration != "" {
		last := st.LastRegistration
		body.LastRegistration = &last
	}
	writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: body})
}
