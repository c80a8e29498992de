// Package api exposes the diagnosis engine over HTTP: batch diagnosis,
// history queries, and a debugging chart of recent hole health.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/banshee-data/torque.report/internal/features"
	"github.com/banshee-data/torque.report/internal/historydb"
	"github.com/banshee-data/torque.report/internal/httputil"
	"github.com/banshee-data/torque.report/internal/monitoring"
	"github.com/banshee-data/torque.report/internal/torque"
)

// Server wires the diagnosis session and history store into HTTP handlers.
type Server struct {
	session *torque.Session
	history *historydb.DB // may be nil
}

// NewServer creates a Server. history may be nil; the history and chart
// endpoints then return 404.
func NewServer(session *torque.Session, history *historydb.DB) *Server {
	return &Server{session: session, history: history}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/diagnose", s.handleDiagnose)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/chart", s.handleHealthChart)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// diagnoseRequest is the batch payload: one carrier, hole id to raw curve.
type diagnoseRequest struct {
	CarrierID string                    `json:"carrier_id"`
	Holes     map[string]features.Curve `json:"holes"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req diagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON payload: "+err.Error())
		return
	}
	if req.CarrierID == "" {
		httputil.BadRequest(w, "carrier_id is required")
		return
	}
	if len(req.Holes) == 0 {
		httputil.BadRequest(w, "holes map is empty")
		return
	}

	results, err := s.session.Diagnose(req.CarrierID, req.Holes)
	if err != nil {
		// Per-hole failures are inside results; an error here is a
		// carrier-level persistence problem.
		monitoring.Logf("diagnose failed for carrier %s: %v", req.CarrierID, err)
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, results)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.NotFound(w, "history database not configured")
		return
	}

	carrierID := r.URL.Query().Get("carrier_id")
	if carrierID == "" {
		httputil.BadRequest(w, "carrier_id is required")
		return
	}
	limit := queryInt(r, "limit", 100)

	var (
		records []historydb.Record
		err     error
	)
	if holeID := r.URL.Query().Get("hole_id"); holeID != "" {
		records, err = s.history.RecentByHole(carrierID, holeID, limit)
	} else {
		records, err = s.history.RecentByCarrier(carrierID, limit)
	}
	if err != nil {
		httputil.InternalServerError(w, "failed to query history: "+err.Error())
		return
	}
	httputil.WriteJSONOK(w, records)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":         "ok",
		"active_carrier": s.session.ActiveCarrier(),
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
