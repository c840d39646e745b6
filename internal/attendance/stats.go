package attendance

import (
	"context"
	"sort"

	"rollbook/internal/apperr"
	"rollbook/internal/day"
)

// StatsQuery scopes GetAttendanceStats. Exactly one of SubjectID and Class
// must be set; both dates are required.
type StatsQuery struct {
	SubjectID string
	Class     string
	StartDate string
	EndDate   string
}

// DailyStat is one day of the stats series.
type DailyStat struct {
	Date       string  `json:"date"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// StatsSummary totals a stats series.
type StatsSummary struct {
	TotalRecords      int     `json:"total_records"`
	TotalPresent      int     `json:"total_present"`
	TotalAbsent       int     `json:"total_absent"`
	OverallPercentage float64 `json:"overall_percentage"`
}

// Stats is the getAttendanceStats result. Days without records are absent
// from DailySeries.
type Stats struct {
	DailySeries []DailyStat  `json:"daily_series"`
	Summary     StatsSummary `json:"summary"`
}

// GetAttendanceStats aggregates present/absent counts per day for a subject
// or a class.
func (s *Service) GetAttendanceStats(ctx context.Context, sq StatsQuery) (Stats, error) {
	const op = "getAttendanceStats"
	switch {
	case sq.SubjectID == "" && sq.Class == "":
		return Stats{}, apperr.Validation(op, "either subjectId or class is required")
	case sq.SubjectID != "" && sq.Class != "":
		return Stats{}, apperr.Validation(op, "subjectId and class cannot be combined")
	}
	r, err := day.ParseRange(sq.StartDate, sq.EndDate, s.loc)
	if err != nil {
		return Stats{}, apperr.Invalid(op, err)
	}

	q := Query{SubjectID: sq.SubjectID, From: r.Start, To: r.End}
	if sq.Class != "" {
		ids, err := s.classIDs(ctx, op, sq.Class)
		if err != nil {
			return Stats{}, err
		}
		q.StudentIDs = ids
	}
	recs, err := s.store.Find(ctx, q)
	if err != nil {
		return Stats{}, apperr.Storage(op, err)
	}
	return Aggregate(recs), nil
}

// Aggregate groups records by (day, status) into a day-ordered series.
func Aggregate(recs []Record) Stats {
	byDay := map[string]*DailyStat{}
	for _, r := range recs {
		k := day.Key(r.Date)
		ds, ok := byDay[k]
		if !ok {
			ds = &DailyStat{Date: k}
			byDay[k] = ds
		}
		switch r.Status {
		case StatusPresent:
			ds.Present++
		case StatusAbsent:
			ds.Absent++
		}
	}

	out := Stats{DailySeries: make([]DailyStat, 0, len(byDay))}
	for _, ds := range byDay {
		ds.Total = ds.Present + ds.Absent
		ds.Percentage = Percent(ds.Present, ds.Total)
		out.DailySeries = append(out.DailySeries, *ds)

		out.Summary.TotalRecords += ds.Total
		out.Summary.TotalPresent += ds.Present
		out.Summary.TotalAbsent += ds.Absent
	}
	sort.Slice(out.DailySeries, func(i, j int) bool {
		return out.DailySeries[i].Date < out.DailySeries[j].Date
	})
	out.Summary.OverallPercentage = Percent(out.Summary.TotalPresent, out.Summary.TotalRecords)
	return out
}

// DayCount is the number of records dated on one day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary is the dashboard overview of the ledger.
type Summary struct {
	TotalAttendanceRecords int        `json:"total_attendance_records"`
	TotalStudents          int        `json:"total_students"`
	TotalSubjects          int        `json:"total_subjects"`
	TodayAttendance        int        `json:"today_attendance"`
	Last7Days              []DayCount `json:"last_7_days"`
}

// GetAttendanceSummary counts records overall, today, and on each of the
// last seven days (oldest first, zero days included).
func (s *Service) GetAttendanceSummary(ctx context.Context) (Summary, error) {
	const op = "getAttendanceSummary"
	var out Summary
	var err error
	if out.TotalAttendanceRecords, err = s.store.Count(ctx, Query{}); err != nil {
		return Summary{}, apperr.Storage(op, err)
	}
	if out.TotalStudents, err = s.people.CountStudents(ctx); err != nil {
		return Summary{}, apperr.Storage(op, err)
	}
	if out.TotalSubjects, err = s.people.CountSubjects(ctx); err != nil {
		return Summary{}, apperr.Storage(op, err)
	}

	week := day.LastN(day.Today(s.now(), s.loc), 7)
	out.Last7Days = make([]DayCount, 0, week.Len())
	for _, d := range week.Days() {
		n, err := s.store.Count(ctx, Query{From: d, To: d})
		if err != nil {
			return Summary{}, apperr.Storage(op, err)
		}
		out.Last7Days = append(out.Last7Days, DayCount{Date: day.Key(d), Count: n})
	}
	out.TodayAttendance = out.Last7Days[len(out.Last7Days)-1].Count
	return out, nil
}
