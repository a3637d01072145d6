package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ilkoid/saigon-traffic/pkg/reports"
)

type hazardsBody struct {
	Success bool             `json:"success"`
	Hazards []reports.Hazard `json:"hazards"`
}

type hazardBody struct {
	Success bool            `json:"success"`
	Hazard  *reports.Hazard `json:"hazard"`
}

type incidentsBody struct {
	Success   bool               `json:"success"`
	Incidents []reports.Incident `json:"incidents"`
}

type incidentBody struct {
	Success  bool              `json:"success"`
	Incident *reports.Incident `json:"incident"`
}

// pathID читает {id} из пути. Пишет 400 при ошибке.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handleListHazards(w http.ResponseWriter, r *http.Request) {
	items, err := s.comps.Reports.ListHazards(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hazardsBody{Success: true, Hazards: items})
}

func (s *Server) handleCreateHazard(w http.ResponseWriter, r *http.Request) {
	form, err := readReportForm(r, s.maxUpload)
	if err != nil {
		writeError(w, err)
		return
	}
	h, err := form.hazard()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.comps.Reports.CreateHazard(r.Context(), h, form.image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hazardBody{Success: true, Hazard: created})
}

func (s *Server) handleGetHazard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h, err := s.comps.Reports.GetHazard(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hazardBody{Success: true, Hazard: h})
}

func (s *Server) handleUpdateHazard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd reports.HazardUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&upd); err != nil {
		badRequest(w, "expected JSON object with severity and/or notes")
		return
	}

	h, err := s.comps.Reports.UpdateHazard(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hazardBody{Success: true, Hazard: h})
}

func (s *Server) handleDeleteHazard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h, err := s.comps.Reports.DeleteHazard(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hazardBody{Success: true, Hazard: h})
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	items, err := s.comps.Reports.ListIncidents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentsBody{Success: true, Incidents: items})
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	form, err := readReportForm(r, s.maxUpload)
	if err != nil {
		writeError(w, err)
		return
	}
	i, err := form.incident()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.comps.Reports.CreateIncident(r.Context(), i, form.image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, incidentBody{Success: true, Incident: created})
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	i, err := s.comps.Reports.GetIncident(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentBody{Success: true, Incident: i})
}

func (s *Server) handleVerifyIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	i, err := s.comps.Reports.VerifyIncident(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentBody{Success: true, Incident: i})
}

func (s *Server) handleDeleteIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	i, err := s.comps.Reports.DeleteIncident(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentBody{Success: true, Incident: i})
}

// GET /uploads/{key...}
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := s.comps.Reports.LoadImage(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", reports.ImageContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
