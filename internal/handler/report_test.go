package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/report"
)

func seedReportData(t *testing.T, env *testEnv) {
	t.Helper()

	maria := createFamily(t, env, "Maria Souza")
	createFamily(t, env, "João Lima")

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, donationType := range []string{"Roupas", "Roupas", "Alimentos não perecíveis"} {
		if _, err := env.donations.Create(model.Donation{
			FamilyID:     maria.ID,
			DonationType: donationType,
			Date:         today,
		}); err != nil {
			t.Fatalf("create donation: %v", err)
		}
	}
}

func TestReportSummary(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)

	rec := doJSON(t, env.report.Summary, "GET", "/api/reports/summary", "/api/reports/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	s := decodeBody[report.Summary](t, rec)
	if s.TotalFamilies != 2 {
		t.Errorf("total_families = %d, want 2", s.TotalFamilies)
	}
	if s.TotalDonations != 3 {
		t.Errorf("total_donations = %d, want 3", s.TotalDonations)
	}
	if s.RecentCount != 1 || s.AttentionCount != 1 {
		t.Errorf("buckets = recent %d / attention %d, want 1/1", s.RecentCount, s.AttentionCount)
	}
	if s.AttendanceRate != 50 {
		t.Errorf("attendance_rate = %d, want 50", s.AttendanceRate)
	}
}

func TestReportTypeStats(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)

	rec := doJSON(t, env.report.TypeStats, "GET", "/api/reports/types", "/api/reports/types", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	stats := decodeBody[[]report.TypeStat](t, rec)
	if len(stats) != 2 {
		t.Fatalf("len = %d, want 2", len(stats))
	}
	if stats[0].Type != "Roupas" || stats[0].Count != 2 || stats[0].Percent != 67 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
}

func TestReportAttention(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)

	rec := doJSON(t, env.report.Attention, "GET", "/api/reports/attention", "/api/reports/attention", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	families := decodeBody[[]model.Family](t, rec)
	if len(families) != 1 || families[0].ResponsibleName != "João Lima" {
		t.Errorf("attention = %+v", families)
	}
}

func TestReportRecentAndNeighborhoodsEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.report.Recent, "GET", "/api/reports/recent", "/api/reports/recent", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recent status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("recent body = %q, want empty array", got)
	}

	rec = doJSON(t, env.report.Neighborhoods, "GET", "/api/reports/neighborhoods", "/api/reports/neighborhoods", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("neighborhoods status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("neighborhoods body = %q, want empty array", got)
	}
}
