package scanning

// JobPatch is a partial job update. Nil fields are left unchanged; the
// append slices are added after existing entries.
type JobPatch struct {
	Status                *JobStatus
	Progress              *int
	CurrentCheck          *string
	AppendVulnerabilities []Vulnerability
	AppendRecommendations []Recommendation
	TotalChecks           *int
	PassedChecks          *int
	FailedChecks          *int
	RiskScore             *float64
	Report                *Report
	Error                 *string
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T { return &v }
