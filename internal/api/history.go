package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-connector/internal/audit"
)

// handleSyncHistory lists sync attempts across all devices.
//
// Query parameters: device_id, failed=true, limit, offset.
func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseHistoryFilter(w, r)
	if !ok {
		return
	}
	filter.DeviceID = r.URL.Query().Get("device_id")
	s.writeHistory(w, r, filter)
}

func (s *Server) handleDeviceSyncHistory(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseHistoryFilter(w, r)
	if !ok {
		return
	}
	filter.DeviceID = chi.URLParam(r, "id")
	s.writeHistory(w, r, filter)
}

func (s *Server) writeHistory(w http.ResponseWriter, r *http.Request, filter audit.Filter) {
	res, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing sync history", "error", err)
		writeInternalError(w, "failed to list sync history")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func parseHistoryFilter(w http.ResponseWriter, r *http.Request) (audit.Filter, bool) {
	q := r.URL.Query()
	var filter audit.Filter

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return filter, false
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return filter, false
		}
		filter.Offset = n
	}
	if v := q.Get("failed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "failed must be a boolean")
			return filter, false
		}
		filter.FailedOnly = b
	}
	return filter, true
}
