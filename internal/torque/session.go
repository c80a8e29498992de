package torque

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/torque.report/internal/features"
	"github.com/banshee-data/torque.report/internal/monitoring"
)

// ModelStore persists a carrier's full model set. Implemented by
// modelstore.Store; tests substitute in-memory fakes.
type ModelStore interface {
	Save(carrierID string, models map[string]*HoleModel) error
	Load(carrierID string) (map[string]*HoleModel, error)
}

// HistorySink receives per-hole diagnosis outcomes for audit. Recording is
// best-effort: a sink failure never fails the diagnosis.
type HistorySink interface {
	RecordDiagnosis(batchID, carrierID, holeID, status string, eCode string, health float64) error
}

// Session owns the single-slot active-carrier cache and dispatches diagnosis
// batches through the pipeline. All calls are serialized internally; the
// Session is the sole writer of its carriers' persisted state within the
// process. Cross-process writers to the same carrier are last-writer-wins
// and need an external lock.
type Session struct {
	mu sync.Mutex

	extractor *features.Extractor
	store     ModelStore
	history   HistorySink // may be nil
	tolerance float64

	activeCarrier string
	activeModels  map[string]*HoleModel
}

// NewSession creates a Session. history may be nil to disable the audit
// trail. toleranceFactor is the production sigma multiplier consumed by
// Evaluate.
func NewSession(extractor *features.Extractor, store ModelStore, history HistorySink, toleranceFactor float64) *Session {
	if toleranceFactor <= 0 {
		toleranceFactor = 3.0
	}
	return &Session{
		extractor: extractor,
		store:     store,
		history:   history,
		tolerance: toleranceFactor,
	}
}

// activate makes carrierID the active carrier, flushing the previously
// active carrier's models first and loading the requested set from the
// store (empty if none exist yet). Caller holds s.mu.
func (s *Session) activate(carrierID string) error {
	if s.activeCarrier == carrierID && s.activeModels != nil {
		return nil
	}

	if s.activeCarrier != "" && s.activeModels != nil {
		if err := s.store.Save(s.activeCarrier, s.activeModels); err != nil {
			return fmt.Errorf("flush carrier %s: %w", s.activeCarrier, err)
		}
	}

	monitoring.Logf("switching carrier context to %s", carrierID)
	models, err := s.store.Load(carrierID)
	if err != nil {
		return fmt.Errorf("load carrier %s: %w", carrierID, err)
	}
	if models == nil {
		models = make(map[string]*HoleModel)
	}
	s.activeCarrier = carrierID
	s.activeModels = models
	return nil
}

// model fetches or lazily creates the hole's model. Caller holds s.mu.
func (s *Session) model(holeID string) *HoleModel {
	m, ok := s.activeModels[holeID]
	if !ok {
		m = NewHoleModel(holeID)
		s.activeModels[holeID] = m
	}
	return m
}

// Diagnose runs one batch: every hole under carrierID goes through curve
// validation, feature extraction, the hard physics gate, and the
// statistical model. One hole's failure never aborts its siblings. The
// active carrier's full model set is persisted after the batch
// (write-through). The returned error covers carrier-level persistence
// problems only; per-hole problems land in that hole's report.
func (s *Session) Diagnose(carrierID string, data map[string]features.Curve) (map[string]HoleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.activate(carrierID); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	results := make(map[string]HoleReport, len(data))

	// Deterministic dispatch order keeps logs and history stable.
	holeIDs := make([]string, 0, len(data))
	for holeID := range data {
		holeIDs = append(holeIDs, holeID)
	}
	sort.Strings(holeIDs)

	for _, holeID := range holeIDs {
		report := s.diagnoseHole(holeID, data[holeID])
		results[holeID] = report
		s.record(batchID, carrierID, holeID, report)
	}

	if err := s.store.Save(carrierID, s.activeModels); err != nil {
		return results, fmt.Errorf("persist carrier %s: %w", carrierID, err)
	}
	return results, nil
}

// diagnoseHole runs one hole through the pipeline. Caller holds s.mu with
// the carrier already active.
func (s *Session) diagnoseHole(holeID string, curve features.Curve) HoleReport {
	// Layer 0: input shape. A malformed curve is a data error; the model
	// is untouched.
	if err := curve.Validate(); err != nil {
		monitoring.Logf("data format error for hole %s: %v", holeID, err)
		v := Verdict{Status: VerdictNG, ECode: CodeDataFormat, WCode: "0.0", RCode: CodeRemedyData}
		return assembleReport(v, Suggestion{Status: SuggestionNotAvailable, Params: map[string]any{}})
	}

	fp := s.extractor.Extract(curve)

	// Layer 1: hard physics gate. A violating sample is physically
	// impossible and is quarantined; letting it into the buffers would
	// poison the baseline.
	if violations := features.CheckHardConstraints(fp); len(violations) > 0 {
		first := violations[0]
		v := Verdict{
			Status: VerdictNG,
			ECode:  Code(first),
			WCode:  "0.0",
			RCode:  RemedyForViolation(first),
		}
		return assembleReport(v, Suggestion{Status: SuggestionNotAvailable, Params: map[string]any{}})
	}

	// Layer 2: statistical learning. Update first so the model learns this
	// physically valid sample, then evaluate against the (now current)
	// baseline; a statistical NG is a genuine event, flagged after the
	// fact.
	m := s.model(holeID)
	m.Update(fp)
	verdict := m.Evaluate(fp, s.tolerance)
	return assembleReport(verdict, m.OptimizationSuggestion())
}

// record writes the audit trail entry for one hole, if a sink is attached.
func (s *Session) record(batchID, carrierID, holeID string, r HoleReport) {
	if s.history == nil {
		return
	}
	status, eCode := VerdictOK, Code("")
	for _, issue := range []IssueReport{r.ScrewIssue, r.CarrierIssue, r.ToolIssue, r.MachineIssue, r.DataIssue} {
		if issue.Status == VerdictNG {
			status, eCode = VerdictNG, issue.ECode
			break
		}
	}
	health := 0.0
	if r.CarrierIssue.HealthScore != nil {
		health = *r.CarrierIssue.HealthScore
	}
	if err := s.history.RecordDiagnosis(batchID, carrierID, holeID, status, string(eCode), health); err != nil {
		monitoring.Logf("history record failed for %s/%s: %v", carrierID, holeID, err)
	}
}

// Flush persists the active carrier's model set, if any. Call on shutdown
// and at any externally chosen durability point; Diagnose already flushes
// after every batch.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeCarrier == "" || s.activeModels == nil {
		return nil
	}
	if err := s.store.Save(s.activeCarrier, s.activeModels); err != nil {
		return fmt.Errorf("flush carrier %s: %w", s.activeCarrier, err)
	}
	return nil
}

// ActiveCarrier returns the currently cached carrier id, or "".
func (s *Session) ActiveCarrier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCarrier
}
