package api

// Trend описывает изменение метрики относительно прошлого периода
type Trend struct {
	Direction string  `json:"direction"` // up | down | flat
	Value     float64 `json:"value"`
}

// DashboardStats is the payload of GET /admin/dashboard-stats, rendered as stat cards.
type DashboardStats struct {
	Trends              map[string]Trend `json:"trends"`
	SystemHealth        string           `json:"system_health"`
	DeploymentsToday    int              `json:"deployments_today"`
	ActiveScans         int              `json:"active_scans"`
	OpenVulnerabilities int              `json:"open_vulnerabilities"`
	TestPassRate        float64          `json:"test_pass_rate"`
}

// Activity — одна запись ленты активности (деплой, скан, прогон тестов)
type Activity struct {
	CreatedAt   Timestamp `json:"created_at"`
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Repository  string    `json:"repository,omitempty"`
	Environment string    `json:"environment,omitempty"`
}

// ServiceHealth is the status of one backend dependency.
type ServiceHealth struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

// HealthStatus is the payload of GET /analytics/health.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// DORAMetrics содержит четыре ключевые метрики DORA за период
type DORAMetrics struct {
	Period                 string  `json:"period"`
	DeploymentFrequency    float64 `json:"deployment_frequency"`     // деплоев в день
	LeadTimeHours          float64 `json:"lead_time_hours"`          // от коммита до прода
	ChangeFailureRate      float64 `json:"change_failure_rate"`      // проценты
	MeanTimeToRecoverHours float64 `json:"mean_time_to_recover_hours"`
}

// TestEfficiencyPoint is one sample of the test-efficiency series.
type TestEfficiencyPoint struct {
	Date            Timestamp `json:"date"`
	PassRate        float64   `json:"pass_rate"`
	AvgDurationSecs float64   `json:"avg_duration_seconds"`
	TestsSkipped    int       `json:"tests_skipped"`
	FlakyTests      int       `json:"flaky_tests"`
}

// TestEfficiency is the payload of GET /analytics/test-efficiency.
type TestEfficiency struct {
	Period string                `json:"period"`
	Series []TestEfficiencyPoint `json:"series"`
}

// TeamStats агрегированные показатели одной команды
type TeamStats struct {
	Team           string  `json:"team"`
	Deployments    int     `json:"deployments"`
	PullRequests   int     `json:"pull_requests"`
	SuccessRate    float64 `json:"success_rate"`
	AvgReviewHours float64 `json:"avg_review_hours"`
	OpenIncidents  int     `json:"open_incidents"`
}

// TeamPerformance is the payload of GET /analytics/team-performance.
type TeamPerformance struct {
	Period string      `json:"period"`
	Teams  []TeamStats `json:"teams"`
}
