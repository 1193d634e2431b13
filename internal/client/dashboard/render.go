package dashboard

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/iudanet/zendash/pkg/api"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func trendMark(t api.Trend) string {
	switch t.Direction {
	case "up":
		return fmt.Sprintf("▲ %.1f%%", t.Value)
	case "down":
		return fmt.Sprintf("▼ %.1f%%", t.Value)
	default:
		return "–"
	}
}

func renderStatCards(w io.Writer, s *api.DashboardStats) {
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "  Deployments today\t%d\t%s\n", s.DeploymentsToday, trendMark(s.Trends["deployments"]))
	_, _ = fmt.Fprintf(tw, "  Test pass rate\t%.1f%%\t%s\n", s.TestPassRate, trendMark(s.Trends["test_pass_rate"]))
	_, _ = fmt.Fprintf(tw, "  Open vulnerabilities\t%d\t%s\n", s.OpenVulnerabilities, trendMark(s.Trends["vulnerabilities"]))
	_, _ = fmt.Fprintf(tw, "  System health\t%s\t\n", s.SystemHealth)
	_ = tw.Flush()
}

func renderSecurity(w io.Writer, s *api.DashboardStats) {
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "  Open vulnerabilities\t%d\t%s\n", s.OpenVulnerabilities, trendMark(s.Trends["vulnerabilities"]))
	_, _ = fmt.Fprintf(tw, "  Active scans\t%d\t\n", s.ActiveScans)
	_ = tw.Flush()
}

func renderActivity(w io.Writer, items []api.Activity) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "  no recent activity")
		return
	}
	tw := newTable(w)
	for _, a := range items {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
			a.CreatedAt.Local().Format("15:04"), a.Type, a.Title, a.Status)
	}
	_ = tw.Flush()
}

func renderHealth(w io.Writer, h *api.HealthStatus) {
	_, _ = fmt.Fprintf(w, "  overall: %s\n", h.Status)
	tw := newTable(w)
	for _, s := range h.Services {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%dms\n", s.Name, s.Status, s.LatencyMS)
	}
	_ = tw.Flush()
}

func renderDORA(w io.Writer, m *api.DORAMetrics) {
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "  Deployment frequency\t%.1f/day\n", m.DeploymentFrequency)
	_, _ = fmt.Fprintf(tw, "  Lead time for changes\t%.1fh\n", m.LeadTimeHours)
	_, _ = fmt.Fprintf(tw, "  Change failure rate\t%.1f%%\n", m.ChangeFailureRate)
	_, _ = fmt.Fprintf(tw, "  Time to restore\t%.1fh\n", m.MeanTimeToRecoverHours)
	_ = tw.Flush()
}

func renderTestEfficiency(w io.Writer, e *api.TestEfficiency) {
	if len(e.Series) == 0 {
		_, _ = fmt.Fprintln(w, "  no test runs in period")
		return
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "  date\tpass rate\tavg duration\tflaky\tskipped")
	for _, p := range e.Series {
		_, _ = fmt.Fprintf(tw, "  %s\t%.1f%%\t%.0fs\t%d\t%d\n",
			p.Date.Format("2006-01-02"), p.PassRate, p.AvgDurationSecs, p.FlakyTests, p.TestsSkipped)
	}
	_ = tw.Flush()
}

func renderTeamPerformance(w io.Writer, p *api.TeamPerformance) {
	teams := append([]api.TeamStats(nil), p.Teams...)
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Deployments > teams[j].Deployments
	})

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "  team\tdeploys\tPRs\tsuccess\treview\tincidents")
	for _, t := range teams {
		_, _ = fmt.Fprintf(tw, "  %s\t%d\t%d\t%.1f%%\t%.1fh\t%d\n",
			t.Team, t.Deployments, t.PullRequests, t.SuccessRate, t.AvgReviewHours, t.OpenIncidents)
	}
	_ = tw.Flush()
}

// moreNote печатает сколько записей не поместилось в страницу
func moreNote(w io.Writer, shown, total int) {
	if total > shown {
		_, _ = fmt.Fprintf(w, "  … %d more\n", total-shown)
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func renderDeployments(w io.Writer, p *api.Page[api.Deployment]) {
	if len(p.Items) == 0 {
		_, _ = fmt.Fprintln(w, "  no deployments")
		return
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "  when\tenv\tversion\tcommit\tstatus\trisk")
	for _, d := range p.Items {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%.0f%%\n",
			d.CreatedAt.Local().Format("01-02 15:04"), d.Environment, d.Version, shortSHA(d.CommitSHA), d.Status, d.RiskScore*100)
	}
	_ = tw.Flush()
	moreNote(w, len(p.Items), p.Total)
}

func renderTestRuns(w io.Writer, p *api.Page[api.TestRun]) {
	if len(p.Items) == 0 {
		_, _ = fmt.Fprintln(w, "  no test runs")
		return
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "  when\tcommit\tstatus\tselected\tpassed\tfailed\tduration")
	for _, r := range p.Items {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%d/%d\t%d\t%d\t%.1fs\n",
			r.CreatedAt.Local().Format("01-02 15:04"), shortSHA(r.CommitSHA), r.Status,
			r.SelectedTests, r.TotalTests, r.Passed, r.Failed, float64(r.DurationMS)/1000)
	}
	_ = tw.Flush()
	moreNote(w, len(p.Items), p.Total)
}

func renderVulnerabilities(w io.Writer, p *api.Page[api.Vulnerability]) {
	if len(p.Items) == 0 {
		_, _ = fmt.Fprintln(w, "  no open vulnerabilities")
		return
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "  severity\ttitle\tlocation\tcvss")
	for _, v := range p.Items {
		location, cvss := "-", "-"
		if v.FilePath != nil {
			location = *v.FilePath
			if v.LineNumber != nil {
				location = fmt.Sprintf("%s:%d", location, *v.LineNumber)
			}
		}
		if v.CVSSScore != nil {
			cvss = *v.CVSSScore
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", v.Severity, v.Title, location, cvss)
	}
	_ = tw.Flush()
	moreNote(w, len(p.Items), p.Total)
}
