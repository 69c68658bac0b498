package schedule

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Record is one spreadsheet row keyed by the header cells.
type Record map[string]interface{}

type lessonRow struct {
	Group   string `mapstructure:"group"`
	Weekday string `mapstructure:"weekday"`
	Time    string `mapstructure:"time"`
	Subject string `mapstructure:"subject"`
	Teacher string `mapstructure:"teacher"`
	Room    string `mapstructure:"room"`
}

type examRow struct {
	Group   string `mapstructure:"group"`
	Date    string `mapstructure:"date"`
	Time    string `mapstructure:"time"`
	Subject string `mapstructure:"subject"`
	Note    string `mapstructure:"note"`
}

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday, "пн": time.Monday, "понедельник": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday, "вт": time.Tuesday, "вторник": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "ср": time.Wednesday, "среда": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday, "чт": time.Thursday, "четверг": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "пт": time.Friday, "пятница": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "сб": time.Saturday, "суббота": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday, "вс": time.Sunday, "воскресенье": time.Sunday,
}

var examDateLayouts = []string{
	dateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02.01.2006",
}

// ParseWeekday accepts English and Russian short or full day names.
func ParseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return wd, ok
}

// ParseDate parses a calendar date in loc. It accepts the layouts used in
// the exams sheet.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range examDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Day(t.In(loc)), true
		}
	}
	return time.Time{}, false
}

// Parse builds a snapshot from the schedule and exams sheets. Rows of unknown
// groups and rows missing required cells are counted in Skipped.
func Parse(lessons, exams []Record, groups []string, loc *time.Location) *Snapshot {
	if loc == nil {
		loc = time.UTC
	}
	known := make(map[string]bool, len(groups))
	for _, g := range groups {
		known[g] = true
	}

	snap := NewSnapshot()
	snap.ScheduleRows = len(lessons)
	snap.ExamRows = len(exams)

	for _, rec := range lessons {
		var row lessonRow
		if err := decode(rec, &row); err != nil {
			snap.Skipped++
			continue
		}
		wd, ok := ParseWeekday(row.Weekday)
		if !known[row.Group] || !ok || row.Time == "" || row.Subject == "" {
			snap.Skipped++
			continue
		}
		days := snap.Lessons[row.Group]
		if days == nil {
			days = make(map[time.Weekday][]Lesson)
			snap.Lessons[row.Group] = days
		}
		days[wd] = append(days[wd], Lesson{
			Time:    row.Time,
			Subject: row.Subject,
			Teacher: row.Teacher,
			Room:    row.Room,
		})
	}

	for _, rec := range exams {
		var row examRow
		if err := decode(rec, &row); err != nil {
			snap.Skipped++
			continue
		}
		if !known[row.Group] || row.Subject == "" {
			snap.Skipped++
			continue
		}
		date, ok := ParseDate(row.Date, loc)
		if !ok {
			snap.Skipped++
			continue
		}
		snap.Exams[row.Group] = append(snap.Exams[row.Group], Exam{
			Date:    date,
			Time:    row.Time,
			Subject: row.Subject,
			Note:    row.Note,
		})
	}

	for _, days := range snap.Lessons {
		for _, items := range days {
			sort.SliceStable(items, func(i, j int) bool {
				return startMinutes(items[i].Time) < startMinutes(items[j].Time)
			})
		}
	}
	for _, items := range snap.Exams {
		sort.SliceStable(items, func(i, j int) bool {
			if !items[i].Date.Equal(items[j].Date) {
				return items[i].Date.Before(items[j].Date)
			}
			return items[i].Time < items[j].Time
		})
	}
	return snap
}

func decode(rec Record, out interface{}) error {
	normalized := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return mapstructure.WeakDecode(normalized, out)
}

// startMinutes reads the "HH:MM" start of a "HH:MM-HH:MM" range. Unreadable
// values sort first.
func startMinutes(s string) int {
	if i := strings.IndexAny(s, "-–"); i >= 0 {
		s = s[:i]
	}
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0
	}
	hh, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0
	}
	mm, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}
	return hh*60 + mm
}
