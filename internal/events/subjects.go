package events

const (
	SubjectEvaluationRequest = "scm.evaluation.request"

	StreamName   = "SEGMENT_EVENTS"
	StreamMaxAge = "2160h" // 90 days, one quarter of evaluation history
)

func SubjectRunStarted(runID string) string   { return "scm.run." + runID + ".started" }
func SubjectRunCompleted(runID string) string { return "scm.run." + runID + ".completed" }
func SubjectRunFailed(runID string) string    { return "scm.run." + runID + ".failed" }

func SubjectSupplierClassified(supplierID string) string {
	return "scm.supplier." + supplierID + ".classified"
}

func SubjectDistributionAlert(businessUnit string) string {
	return "scm.distribution." + businessUnit + ".alert"
}

func SubjectProfileUpdated(businessUnit string) string {
	return "scm.profile." + businessUnit + ".updated"
}
