// Package report derives dashboard views from the family and donation
// collections: status buckets, search filtering, donation-type rankings,
// and summary counters. Everything here is pure computation over
// in-memory slices; the stores own persistence.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
)

type FamilyStatus string

const (
	// StatusRecent marks families that donated within the last 30 days.
	StatusRecent FamilyStatus = "recent"
	// StatusModerate marks families whose last donation is 31 to 60 days old.
	StatusModerate FamilyStatus = "moderate"
	// StatusAttention marks families more than 60 days without a donation,
	// or that never donated at all.
	StatusAttention FamilyStatus = "attention"
)

// StatusOf buckets a family by the age of its last donation relative to
// now. A missing last donation always lands in the attention bucket.
func StatusOf(f model.Family, now time.Time) FamilyStatus {
	if f.LastDonation == nil {
		return StatusAttention
	}
	days := daysSince(*f.LastDonation, now)
	switch {
	case days <= 30:
		return StatusRecent
	case days <= 60:
		return StatusModerate
	default:
		return StatusAttention
	}
}

func daysSince(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}

// Filter narrows a family list. Zero values mean "no constraint".
type Filter struct {
	// Search matches as a case-insensitive substring of the responsible
	// name or the neighborhood.
	Search string
	// Status keeps only families in the given bucket.
	Status FamilyStatus
	// Neighborhood keeps only exact (case-insensitive) matches.
	Neighborhood string
}

// FilterFamilies applies the filter, preserving input order.
func FilterFamilies(families []model.Family, filter Filter, now time.Time) []model.Family {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	neighborhood := strings.ToLower(strings.TrimSpace(filter.Neighborhood))

	out := []model.Family{}
	for _, f := range families {
		if search != "" &&
			!strings.Contains(strings.ToLower(f.ResponsibleName), search) &&
			!strings.Contains(strings.ToLower(f.Neighborhood), search) {
			continue
		}
		if neighborhood != "" && strings.ToLower(f.Neighborhood) != neighborhood {
			continue
		}
		if filter.Status != "" && StatusOf(f, now) != filter.Status {
			continue
		}
		out = append(out, f)
	}
	return out
}

// TypeStat is one row of the donation-type ranking.
type TypeStat struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// TypeStats ranks donation types by frequency and returns the top five.
// Percent is count over the total number of donations, rounded to the
// nearest whole number. Ties break alphabetically so the ranking is
// stable.
func TypeStats(donations []model.Donation) []TypeStat {
	if len(donations) == 0 {
		return []TypeStat{}
	}

	counts := make(map[string]int)
	for _, d := range donations {
		counts[d.DonationType]++
	}

	stats := make([]TypeStat, 0, len(counts))
	total := len(donations)
	for donationType, count := range counts {
		stats = append(stats, TypeStat{
			Type:    donationType,
			Count:   count,
			Percent: int(math.Round(float64(count) / float64(total) * 100)),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Type < stats[j].Type
	})

	if len(stats) > 5 {
		stats = stats[:5]
	}
	return stats
}

// Summary is the dashboard headline block.
type Summary struct {
	TotalFamilies      int `json:"total_families"`
	TotalMembers       int `json:"total_members"`
	TotalDonations     int `json:"total_donations"`
	DonationsThisMonth int `json:"donations_this_month"`
	RecentCount        int `json:"recent_count"`
	ModerateCount      int `json:"moderate_count"`
	AttentionCount     int `json:"attention_count"`
	// AttendanceRate is the share of families that donated at least once,
	// as a rounded whole percentage.
	AttendanceRate int `json:"attendance_rate"`
}

// Summarize computes the headline counters for the given collections.
func Summarize(families []model.Family, donations []model.Donation, now time.Time) Summary {
	s := Summary{
		TotalFamilies:  len(families),
		TotalDonations: len(donations),
	}

	attended := 0
	for _, f := range families {
		s.TotalMembers += f.MemberCount
		if f.LastDonation != nil {
			attended++
		}
		switch StatusOf(f, now) {
		case StatusRecent:
			s.RecentCount++
		case StatusModerate:
			s.ModerateCount++
		default:
			s.AttentionCount++
		}
	}

	year, month, _ := now.UTC().Date()
	for _, d := range donations {
		dy, dm, _ := d.Date.UTC().Date()
		if dy == year && dm == month {
			s.DonationsThisMonth++
		}
	}

	if len(families) > 0 {
		s.AttendanceRate = int(math.Round(float64(attended) / float64(len(families)) * 100))
	}
	return s
}

// StaleFamilies returns every family more than 30 days without a donation,
// or that never received one, longest-waiting first. Families that never
// received a donation sort before everyone else, oldest registration first.
// Note the threshold is 30 days, not the attention bucket's 60: moderate
// families need follow-up too, the status buckets only color the list.
func StaleFamilies(families []model.Family, now time.Time) []model.Family {
	var out []model.Family
	for _, f := range families {
		if f.LastDonation == nil || daysSince(*f.LastDonation, now) > 30 {
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastDonation, out[j].LastDonation
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return out
}

// NeedingAttention is the dashboard widget's view of StaleFamilies,
// capped at the five longest-waiting.
func NeedingAttention(families []model.Family, now time.Time) []model.Family {
	out := StaleFamilies(families, now)
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// RecentDonations returns the five most recent donations by date.
func RecentDonations(donations []model.Donation) []model.Donation {
	out := make([]model.Donation, len(donations))
	copy(out, donations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// Neighborhoods returns the distinct non-empty neighborhoods, sorted.
func Neighborhoods(families []model.Family) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range families {
		n := strings.TrimSpace(f.Neighborhood)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
