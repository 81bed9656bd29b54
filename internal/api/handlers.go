package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-avr/internal/audit"
	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
	"github.com/nerrad567/gray-logic-avr/internal/history"
)

// zoneInfo describes one configured zone.
type zoneInfo struct {
	Zone string `json:"zone"`
	Tag  string `json:"tag,omitempty"`
}

// commandResponse is returned once a command has been handed to the transport.
type commandResponse struct {
	ID      string `json:"id"`
	Zone    string `json:"zone"`
	Setting string `json:"setting"`
	Command string `json:"command"`
}

// handleHealth returns the server and bridge health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.bridge.Health()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           s.version,
		"receiver":          s.bridge.ReceiverID(),
		"bridge":            health,
		"websocket_clients": s.hub.ClientCount(),
	})
}

// handleListZones lists the zones the bridge decodes.
func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	zones := s.bridge.Zones()
	out := make([]zoneInfo, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneInfo{Zone: z.String(), Tag: z.Tag()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"receiver": s.bridge.ReceiverID(),
		"zones":    out,
		"count":    len(out),
	})
}

// handleGetZoneState returns every setting the zone has reported so far.
func (s *Server) handleGetZoneState(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.zoneParam(w, r)
	if !ok {
		return
	}

	snapshot, err := s.bridge.Snapshot(zone)
	if err != nil {
		writeBridgeError(w, err)
		return
	}

	state := make(map[string]avr.Value, len(snapshot))
	for setting, value := range snapshot {
		state[setting.String()] = value
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"receiver": s.bridge.ReceiverID(),
		"zone":     zone.String(),
		"state":    state,
	})
}

// handleGetZoneHistory returns recorded changes for the zone, newest first.
// Query parameters: setting (optional), limit (optional, capped).
func (s *Server) handleGetZoneHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "state history is disabled")
		return
	}
	zone, ok := s.zoneParam(w, r)
	if !ok {
		return
	}

	q := history.Query{Zone: zone}
	if name := r.URL.Query().Get("setting"); name != "" {
		setting, err := avr.ParseSetting(name)
		if err != nil {
			writeBadRequest(w, "unknown setting: "+name)
			return
		}
		q.Setting = setting
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		q.Limit = limit
	}

	entries, err := s.history.GetHistory(r.Context(), q)
	if err != nil {
		s.logger.Error("history query failed", "zone", zone.String(), "error", err)
		writeInternalError(w, "failed to query history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"zone":    zone.String(),
		"entries": entries,
		"count":   len(entries),
	})
}

// handleZoneCommand formats a command for the zone and sends it to the
// receiver. The state change itself arrives later on the receiver's output.
func (s *Server) handleZoneCommand(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.zoneParam(w, r)
	if !ok {
		return
	}

	var cmd avr.CommandMessage
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if cmd.Setting == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "setting is required")
		return
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if cmd.Source == "" {
		cmd.Source = avr.SourceAPI
	}
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now().UTC()
	}

	command, err := s.bridge.Execute(zone, cmd)
	if err != nil {
		s.logger.Warn("command rejected",
			"command_id", cmd.ID,
			"zone", zone.String(),
			"setting", cmd.Setting,
			"error", err)
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, commandResponse{
		ID:      cmd.ID,
		Zone:    zone.String(),
		Setting: cmd.Setting,
		Command: command,
	})
}

// handleRefresh asks the receiver to report its state again, for one zone
// (?zone=) or all of them.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("zone")
	if name == "" {
		if err := s.bridge.RefreshAll(); err != nil {
			writeBridgeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "requested"})
		return
	}

	zone, err := avr.ParseZone(name)
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	if err := s.bridge.Refresh(zone); err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "requested", "zone": zone.String()})
}

// handleListCommands pages through the command audit log.
// Query parameters: zone, setting, status, limit, offset (all optional).
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeUnavailable(w, "command log is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Setting: q.Get("setting"),
		Status:  audit.Status(q.Get("status")),
	}
	if name := q.Get("zone"); name != "" {
		zone, err := avr.ParseZone(name)
		if err != nil {
			writeBadRequest(w, "unknown zone: "+name)
			return
		}
		filter.Zone = zone.String()
	}
	switch filter.Status {
	case "", audit.StatusSent, audit.StatusFailed:
	default:
		writeBadRequest(w, "status must be sent or failed")
		return
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, p.name+" must be a non-negative integer")
			return
		}
		*p.dst = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("command log query failed", "error", err)
		writeInternalError(w, "failed to query command log")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// zoneParam resolves the {zone} URL parameter to a configured zone, writing
// a 404 when it is unknown or not configured.
func (s *Server) zoneParam(w http.ResponseWriter, r *http.Request) (avr.Zone, bool) {
	name := chi.URLParam(r, "zone")
	zone, err := avr.ParseZone(name)
	if err != nil {
		writeNotFound(w, "unknown zone: "+name)
		return zone, false
	}
	if !slices.Contains(s.bridge.Zones(), zone) {
		writeNotFound(w, "zone not configured: "+name)
		return zone, false
	}
	return zone, true
}
