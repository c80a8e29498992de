package torque

import "github.com/banshee-data/torque.report/internal/features"

// Code is a diagnosis code: an e-code naming a fault, or an r-code naming
// its remediation. The set is closed; every code the engine can emit is
// declared here and mapped exhaustively, so a new code cannot silently
// land in the wrong report bucket.
type Code string

// E-codes. The E_* values are the hard physical constraint violations; the
// Exx values are statistical anomalies on physically valid curves.
const (
	CodeNegSlope     Code = Code(features.ViolationNegSlope)
	CodeNoTorqueRise Code = Code(features.ViolationNoTorqueRise)
	CodeZeroWork     Code = Code(features.ViolationZeroWork)

	CodeTorqueAnomaly Code = "E02" // peak torque outside baseline
	CodeSlopeAnomaly  Code = "E04" // rigidity slope outside baseline
	CodeWorkAnomaly   Code = "E08" // total work outside baseline

	CodeDataFormat Code = "E99" // malformed input, boundary-caught
)

// R-codes.
const (
	CodeRemedyNone    Code = "R00"
	CodeRemedyTool    Code = "R02" // verify tool torque/speed settings
	CodeRemedyThread  Code = "R04" // inspect thread, replace screw
	CodeRemedyWasher  Code = "R08" // check washer/joint stack
	CodeRemedyFixture Code = "R_CHECK_FIXTURE"
	CodeRemedyScrew   Code = "R_CHECK_SCREW"
	CodeRemedySensor  Code = "R_CHECK_SENSOR"
	CodeRemedyData    Code = "R_CHECK_DATA"
	CodeRemedyGeneral Code = "R_GENERAL_CHECK"
)

// Optimization suggestion codes.
const (
	CodeDriftDetected Code = "DRIFT_DETECTED"
	CodeUpdateParam   Code = "UPDATE_PARAM"
)

// Bucket names one of the five mutually exclusive issue categories a NG
// result is filed under.
type Bucket int

const (
	BucketScrew Bucket = iota
	BucketCarrier
	BucketTool
	BucketMachine // reserved; no current rule maps to it
	BucketData
)

// bucketForCode is the exhaustive e-code to bucket dispatch. Slope codes go
// to the carrier bucket (rigidity is a property of the fixture and hole),
// torque codes to the tool bucket, data errors to the data bucket. Unmapped
// NG codes default to the screw bucket.
var bucketForCode = map[Code]Bucket{
	CodeNegSlope:      BucketCarrier,
	CodeSlopeAnomaly:  BucketCarrier,
	CodeNoTorqueRise:  BucketTool,
	CodeTorqueAnomaly: BucketTool,
	CodeZeroWork:      BucketScrew,
	CodeWorkAnomaly:   BucketScrew,
	CodeDataFormat:    BucketData,
}

// BucketFor returns the issue bucket for an e-code.
func BucketFor(code Code) Bucket {
	if b, ok := bucketForCode[code]; ok {
		return b
	}
	return BucketScrew
}

// remedyForViolation maps each hard constraint violation to its remediation
// code.
var remedyForViolation = map[features.Violation]Code{
	features.ViolationNegSlope:     CodeRemedyFixture,
	features.ViolationNoTorqueRise: CodeRemedyScrew,
	features.ViolationZeroWork:     CodeRemedySensor,
}

// RemedyForViolation returns the remediation code for a hard constraint
// violation.
func RemedyForViolation(v features.Violation) Code {
	if r, ok := remedyForViolation[v]; ok {
		return r
	}
	return CodeRemedyGeneral
}
