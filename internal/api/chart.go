package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/torque.report/internal/historydb"
	"github.com/banshee-data/torque.report/internal/httputil"
	"github.com/banshee-data/torque.report/internal/monitoring"
)

// handleHealthChart renders a quick HTML line chart of recent health scores
// per hole for one carrier. Debugging-only endpoint for eyeballing drift
// without a frontend.
// Query params:
//   - carrier_id (required)
//   - limit (optional; default 200 records)
func (s *Server) handleHealthChart(w http.ResponseWriter, r *http.Request) {
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
	limit := queryInt(r, "limit", 200)

	records, err := s.history.RecentByCarrier(carrierID, limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to query history: "+err.Error())
		return
	}
	if len(records) == 0 {
		httputil.NotFound(w, "no history for carrier")
		return
	}

	// Group by hole, oldest first within each series.
	byHole := make(map[string][]historydb.Record)
	for _, rec := range records {
		byHole[rec.HoleID] = append(byHole[rec.HoleID], rec)
	}
	holeIDs := make([]string, 0, len(byHole))
	maxSeries := 0
	for holeID, recs := range byHole {
		sort.Slice(recs, func(i, j int) bool { return recs[i].TakenUnixNanos < recs[j].TakenUnixNanos })
		byHole[holeID] = recs
		holeIDs = append(holeIDs, holeID)
		if len(recs) > maxSeries {
			maxSeries = len(recs)
		}
	}
	sort.Strings(holeIDs)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Hole health: " + carrierID,
			Subtitle: "recent diagnoses, " + time.Now().Format(time.RFC3339),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	xAxis := make([]int, maxSeries)
	for i := range xAxis {
		xAxis[i] = i + 1
	}
	line.SetXAxis(xAxis)

	for _, holeID := range holeIDs {
		series := make([]opts.LineData, 0, len(byHole[holeID]))
		for _, rec := range byHole[holeID] {
			series = append(series, opts.LineData{Value: rec.HealthScore})
		}
		line.AddSeries(holeID, series)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		monitoring.Logf("failed to render health chart for %s: %v", carrierID, err)
	}
}
