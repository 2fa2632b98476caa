package routes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/go-infinitude/infinitude/infinitude"
	"github.com/go-infinitude/infinitude/internal/history"
)

// Server exposes the bridge's view of the system as a small read-only
// JSON API. All state comes from the client's last completed poll; no
// handler talks to the gateway directly.
type Server struct {
	client *infinitude.Client
	store  *history.Store
}

type SystemResponse struct {
	Brand              string `json:"brand,omitempty"`
	Model              string `json:"model,omitempty"`
	Firmware           string `json:"firmware,omitempty"`
	Mode               string `json:"mode,omitempty"`
	HeatSource         string `json:"heat_source,omitempty"`
	TemperatureUnit    string `json:"temperature_unit,omitempty"`
	OutsideTemperature *int   `json:"outside_temperature,omitempty"`
	FilterLevel        *int   `json:"filter_level,omitempty"`
	LocalTime          string `json:"local_time"`
}

type ZoneResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Humidity       *int     `json:"humidity,omitempty"`
	HeatSetpoint   *float64 `json:"heat_setpoint,omitempty"`
	CoolSetpoint   *float64 `json:"cool_setpoint,omitempty"`
	FanMode        string   `json:"fan_mode,omitempty"`
	Action         string   `json:"action,omitempty"`
	Activity       string   `json:"activity,omitempty"`
	HoldMode       string   `json:"hold_mode"`
	HoldUntil      string   `json:"hold_until,omitempty"`
	NextActivity   string   `json:"next_activity,omitempty"`
	NextStart      string   `json:"next_activity_start,omitempty"`
}

type StateResponse struct {
	System SystemResponse `json:"system"`
	Zones  []ZoneResponse `json:"zones"`
}

type HistoryResponse struct {
	ZoneID  string               `json:"zone_id"`
	Samples []history.ZoneSample `json:"samples"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(client *infinitude.Client, store *history.Store) *Server {
	return &Server{client: client, store: store}
}

// Router builds the route table. The history endpoint is only mounted
// when a store is configured.
func (s *Server) Router() *httprouter.Router {
	router := httprouter.New()
	router.GET("/state", s.handleState)
	router.GET("/energy", s.handleEnergy)
	if s.store != nil {
		router.GET("/zones/:id/history", s.handleZoneHistory)
	}
	return router
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := StateResponse{
		System: s.systemResponse(),
		Zones:  make([]ZoneResponse, 0, len(s.client.Zones)),
	}
	for _, id := range s.client.ZoneIDs() {
		resp.Zones = append(resp.Zones, s.zoneResponse(s.client.Zones[id]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnergy(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.client.Energy())
}

func (s *Server) handleZoneHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := params.ByName("id")
	if _, ok := s.client.Zones[id]; !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown zone " + id})
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid limit " + raw})
			return
		}
		limit = n
	}

	samples, err := s.store.RecentZoneSamples(id, limit)
	if err != nil {
		log.Error().Err(err).Str("zone", id).Msg("Failed to query zone history")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "history query failed"})
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{ZoneID: id, Samples: samples})
}

func (s *Server) systemResponse() SystemResponse {
	sys := s.client.System
	resp := SystemResponse{}
	if sys == nil {
		return resp
	}

	resp.Brand, _ = sys.Brand()
	resp.Model, _ = sys.Model()
	resp.Firmware, _ = sys.Firmware()
	if mode, ok := sys.HVACMode(); ok {
		resp.Mode = string(mode)
	}
	if source, ok := sys.HeatSource(); ok {
		resp.HeatSource = string(source)
	}
	if unit, ok := sys.TemperatureUnit(); ok {
		resp.TemperatureUnit = string(unit)
	}
	if oat, ok := sys.OutsideTemperature(); ok {
		resp.OutsideTemperature = &oat
	}
	if level, ok := sys.FilterLevel(); ok {
		resp.FilterLevel = &level
	}
	resp.LocalTime = sys.LocalTime().Format(time.RFC3339)
	return resp
}

func (s *Server) zoneResponse(zone *infinitude.Zone) ZoneResponse {
	resp := ZoneResponse{ID: zone.ID, HoldMode: string(zone.HoldMode())}

	resp.Name, _ = zone.Name()
	if temp, ok := zone.CurrentTemperature(); ok {
		resp.Temperature = &temp
	}
	if rh, ok := zone.CurrentHumidity(); ok {
		resp.Humidity = &rh
	}
	if htsp, ok := zone.HeatSetpoint(); ok {
		resp.HeatSetpoint = &htsp
	}
	if clsp, ok := zone.CoolSetpoint(); ok {
		resp.CoolSetpoint = &clsp
	}
	if fan, ok := zone.FanMode(); ok {
		resp.FanMode = string(fan)
	}
	if action, ok := zone.HVACAction(); ok {
		resp.Action = string(action)
	}
	if activity, ok := zone.CurrentActivity(); ok {
		resp.Activity = string(activity)
	}
	if until, ok := zone.HoldUntil(); ok {
		resp.HoldUntil = until.Format(time.RFC3339)
	}
	if next, ok := zone.NextActivity(); ok {
		resp.NextActivity = string(next)
	}
	if start, ok := zone.NextActivityStart(); ok {
		resp.NextStart = start.Format(time.RFC3339)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
