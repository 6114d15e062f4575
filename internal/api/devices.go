package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-connector/internal/device"
	"github.com/nerrad567/gray-logic-connector/internal/schema"
	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

// SyncResponse is the POST /devices/{id}/schema body.
type SyncResponse struct {
	Notification schemasync.Notification `json:"notification"`
	Step         string                  `json:"step"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.devices.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("getting device", "error", err)
		writeInternalError(w, "failed to get device")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleSyncSchema runs a synchronisation with the request body as schema.
func (s *Server) handleSyncSchema(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := device.ValidateID(id); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var sch schema.Schema
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&sch); err != nil {
		writeBadRequest(w, "body must be a JSON object")
		return
	}
	if sch == nil {
		writeBadRequest(w, "schema is required")
		return
	}

	res, err := s.syncer.Run(r.Context(), device.Device{ID: id, Schema: sch})
	if err != nil {
		s.logger.Error("schema sync outcome not published", "device_id", id, "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "outcome could not be published")
		return
	}

	writeJSON(w, http.StatusAccepted, SyncResponse{
		Notification: res.Notification(),
		Step:         string(res.Step),
	})
}
