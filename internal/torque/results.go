package torque

// IssueReport is one bucket of a hole's diagnosis record. HealthScore and
// ThresholdRecommendation are populated only on the carrier bucket.
type IssueReport struct {
	Status string `json:"status"`
	ECode  Code   `json:"e_code"`
	WCode  string `json:"w_code"`
	RCode  Code   `json:"r_code"`

	HealthScore             *float64 `json:"health_score,omitempty"`
	ThresholdRecommendation *float64 `json:"threshold_recommendation"`
}

// HoleReport is the full diagnosis record for one hole: five mutually
// exclusive issue buckets plus the optimization suggestion that always
// accompanies them.
type HoleReport struct {
	ScrewIssue   IssueReport `json:"screw_issue"`
	CarrierIssue IssueReport `json:"carrier_issue"`
	ToolIssue    IssueReport `json:"tool_issue"`
	MachineIssue IssueReport `json:"machine_issue"`
	DataIssue    IssueReport `json:"data_issue"`

	OptimizationSuggestion Suggestion `json:"optimization_suggestion"`
}

// assembleReport files a verdict into its bucket and fills the remaining
// buckets with OK placeholders. The carrier bucket always carries the
// health score, whichever bucket the fault landed in.
func assembleReport(v Verdict, opt Suggestion) HoleReport {
	ok := IssueReport{Status: VerdictOK}
	r := HoleReport{
		ScrewIssue:             ok,
		CarrierIssue:           ok,
		ToolIssue:              ok,
		MachineIssue:           ok,
		DataIssue:              ok,
		OptimizationSuggestion: opt,
	}

	if v.Status == VerdictNG {
		filed := IssueReport{Status: v.Status, ECode: v.ECode, WCode: v.WCode, RCode: v.RCode}
		switch BucketFor(v.ECode) {
		case BucketCarrier:
			r.CarrierIssue = filed
		case BucketTool:
			r.ToolIssue = filed
		case BucketMachine:
			r.MachineIssue = filed
		case BucketData:
			r.DataIssue = filed
		default:
			r.ScrewIssue = filed
		}
	}

	health := v.HealthScore
	r.CarrierIssue.HealthScore = &health
	return r
}
