package apitest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/iudanet/zendash/pkg/api"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// listBase — время самой новой записи в списках
var listBase = time.Date(2026, 1, 1, 12, 0, 0, 123456000, time.UTC)

func (s *Server) handleDeployments(w http.ResponseWriter, r *http.Request) {
	branch := "main"
	duration := 184
	started := api.Timestamp{Time: listBase.Add(-3 * time.Minute)}
	items := []api.Deployment{
		{
			CreatedAt:       api.Timestamp{Time: listBase},
			RiskFactors:     map[string]any{"files_changed": 12},
			ImpactMetrics:   map[string]any{},
			Branch:          &branch,
			DeployedByUser:  &api.UserBrief{ID: "u-ops", Name: "Ops", Email: "ops@example.com"},
			DurationSeconds: &duration,
			StartedAt:       &started,
			CompletedAt:     &api.Timestamp{Time: listBase},
			ID:              "d-1",
			RepositoryID:    "r-api",
			Environment:     "production",
			Version:         "v2.4.1",
			CommitSHA:       "9f2c1ab7e4d",
			Status:          "completed",
			Strategy:        "canary",
			DeployedBy:      "u-ops",
			RiskScore:       0.27,
		},
		{
			CreatedAt:     api.Timestamp{Time: listBase.Add(-time.Hour)},
			RiskFactors:   map[string]any{"migrations": true},
			ImpactMetrics: map[string]any{},
			ID:            "d-2",
			RepositoryID:  "r-billing",
			Environment:   "staging",
			Version:       "v1.9.0",
			CommitSHA:     "41be07c",
			Status:        "rolled_back",
			Strategy:      "rolling",
			DeployedBy:    "u-ops",
			RiskScore:     0.71,
		},
	}
	sendPage(w, r, items)
}

func (s *Server) handleTestRuns(w http.ResponseWriter, r *http.Request) {
	coverage := 81.4
	saved := 62.0
	items := []api.TestRun{
		{
			CreatedAt:        api.Timestamp{Time: listBase},
			CoveragePercent:  &coverage,
			TimeSavedPercent: &saved,
			ID:               "t-1",
			RepositoryID:     "r-api",
			CommitSHA:        "9f2c1ab7e4d",
			Status:           "completed",
			TotalTests:       1240,
			SelectedTests:    312,
			Passed:           309,
			Failed:           1,
			Skipped:          2,
			DurationMS:       95400,
		},
		{
			CreatedAt:     api.Timestamp{Time: listBase.Add(-30 * time.Minute)},
			ID:            "t-2",
			RepositoryID:  "r-billing",
			CommitSHA:     "41be07c",
			Status:        "running",
			TotalTests:    640,
			SelectedTests: 640,
		},
	}
	sendPage(w, r, items)
}

func (s *Server) handleVulnerabilities(w http.ResponseWriter, r *http.Request) {
	file := "services/auth/token.go"
	line := 88
	cvss := "7.5"
	all := []api.Vulnerability{
		{
			CreatedAt:  api.Timestamp{Time: listBase},
			FilePath:   &file,
			LineNumber: &line,
			CVSSScore:  &cvss,
			ID:         "v-1",
			ScanID:     "s-1",
			Severity:   "high",
			Title:      "Hardcoded JWT secret",
			Status:     api.VulnerabilityOpen,
		},
		{
			CreatedAt: api.Timestamp{Time: listBase.Add(-2 * time.Hour)},
			ID:        "v-2",
			ScanID:    "s-1",
			Severity:  "low",
			Title:     "Outdated TLS cipher suite",
			Status:    "resolved",
		},
	}

	status := r.URL.Query().Get("status")
	items := make([]api.Vulnerability, 0, len(all))
	for _, v := range all {
		if status == "" || v.Status == status {
			items = append(items, v)
		}
	}
	sendPage(w, r, items)
}

// sendPage отдает первую страницу items с учетом page_size
func sendPage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	size := defaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			sendDetail(w, "page_size must be between 1 and 100", http.StatusUnprocessableEntity)
			return
		}
		size = n
	}

	total := len(items)
	if len(items) > size {
		items = items[:size]
	}
	sendJSON(w, api.Page[T]{
		Items:      items,
		Total:      total,
		Page:       1,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}, http.StatusOK)
}
