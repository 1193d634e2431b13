package api

// Page — обертка пагинированных списков backend
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// UserBrief is the short user form embedded in other resources.
type UserBrief struct {
	AvatarURL *string `json:"avatar_url,omitempty"`
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
}

// Deployment is one item of GET /deployments.
type Deployment struct {
	CreatedAt       Timestamp      `json:"created_at"`
	RiskFactors     map[string]any `json:"risk_factors"`
	ImpactMetrics   map[string]any `json:"impact_metrics"`
	Branch          *string        `json:"branch,omitempty"`
	DeployedByUser  *UserBrief     `json:"deployed_by_user,omitempty"`
	RollbackFrom    *string        `json:"rollback_from,omitempty"`
	DurationSeconds *int           `json:"duration_seconds,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	StartedAt       *Timestamp     `json:"started_at,omitempty"`
	CompletedAt     *Timestamp     `json:"completed_at,omitempty"`
	ID              string         `json:"id"`
	RepositoryID    string         `json:"repository_id"`
	Environment     string         `json:"environment"`
	Version         string         `json:"version"`
	CommitSHA       string         `json:"commit_sha"`
	Status          string         `json:"status"` // pending | in_progress | completed | failed | rolled_back
	Strategy        string         `json:"strategy"`
	DeployedBy      string         `json:"deployed_by"`
	RiskScore       float64        `json:"risk_score"`
}

// TestRun — один прогон тестов из GET /tests/runs
type TestRun struct {
	CreatedAt         Timestamp  `json:"created_at"`
	Branch            *string    `json:"branch,omitempty"`
	CoveragePercent   *float64   `json:"coverage_percent,omitempty"`
	SelectionAccuracy *float64   `json:"selection_accuracy,omitempty"`
	TimeSavedPercent  *float64   `json:"time_saved_percent,omitempty"`
	TestFramework     *string    `json:"test_framework,omitempty"`
	TriggeredBy       *string    `json:"triggered_by,omitempty"`
	StartedAt         *Timestamp `json:"started_at,omitempty"`
	CompletedAt       *Timestamp `json:"completed_at,omitempty"`
	ID                string     `json:"id"`
	RepositoryID      string     `json:"repository_id"`
	CommitSHA         string     `json:"commit_sha"`
	Status            string     `json:"status"` // pending | running | completed | failed
	TotalTests        int        `json:"total_tests"`
	SelectedTests     int        `json:"selected_tests"`
	Passed            int        `json:"passed"`
	Failed            int        `json:"failed"`
	Skipped           int        `json:"skipped"`
	DurationMS        int64      `json:"duration_ms"`
}

// Vulnerability is one item of GET /analysis/vulnerabilities.
type Vulnerability struct {
	CreatedAt      Timestamp `json:"created_at"`
	Description    *string   `json:"description,omitempty"`
	FilePath       *string   `json:"file_path,omitempty"`
	LineNumber     *int      `json:"line_number,omitempty"`
	CWEID          *string   `json:"cwe_id,omitempty"`
	CVSSScore      *string   `json:"cvss_score,omitempty"`
	Recommendation *string   `json:"recommendation,omitempty"`
	ID             string    `json:"id"`
	ScanID         string    `json:"scan_id"`
	Severity       string    `json:"severity"`
	Title          string    `json:"title"`
	Status         string    `json:"status"` // open | in_progress | resolved | ignored
}

// VulnerabilityOpen is the status filter for unresolved findings
const VulnerabilityOpen = "open"
