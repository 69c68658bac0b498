package schedule

import (
	"testing"
	"time"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"Mon", time.Monday, true},
		{" fri ", time.Friday, true},
		{"Сб", time.Saturday, true},
		{"воскресенье", time.Sunday, true},
		{"Funday", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseWeekday(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseWeekday(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseWeekday(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2026-10-19", "2026-10-19", true},
		{"19.10.2026", "2026-10-19", true},
		{"2026-10-19T09:30:00", "2026-10-19", true},
		{"2026-10-19T23:30:00Z", "2026-10-20", true},
		{"tomorrow", "", false},
		{"2026-13-01", "", false},
	}
	loc := time.FixedZone("UTC+4", 4*3600)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, loc)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got.Format(dateLayout) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format(dateLayout), tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	lessons := []Record{
		{"group": "10", "weekday": "Mon", "time": "10:15-11:00", "subject": "Physics"},
		{"group": 10, "weekday": "Mon", "time": "08:30-09:15", "subject": "Algebra", "teacher": "Ivanova", "room": 204},
		{"group": "11", "weekday": "Tue", "time": "09:00-09:45", "subject": "History"},
		{"group": "12", "weekday": "Mon", "time": "08:30-09:15", "subject": "Unknown group"},
		{"group": "10", "weekday": "Someday", "time": "08:30-09:15", "subject": "Bad weekday"},
		{"group": "10", "weekday": "Wed", "time": "", "subject": "No time"},
	}
	exams := []Record{
		{"Group": "10", "Date": "2026-10-21", "Time": "12:00", "Subject": "Algebra test"},
		{"group": "10", "date": "2026-10-20", "subject": "Dictation", "note": "bring a pen"},
		{"group": "10", "date": "not a date", "subject": "Broken"},
		{"group": "11", "date": "2026-10-20", "subject": ""},
	}

	snap := Parse(lessons, exams, []string{"10", "11"}, time.UTC)

	if snap.ScheduleRows != 6 || snap.ExamRows != 4 {
		t.Errorf("row counts = %d/%d, want 6/4", snap.ScheduleRows, snap.ExamRows)
	}
	if snap.Skipped != 5 {
		t.Errorf("Skipped = %d, want 5", snap.Skipped)
	}

	mon := snap.Lessons["10"][time.Monday]
	if len(mon) != 2 {
		t.Fatalf("group 10 Monday lessons = %d, want 2", len(mon))
	}
	if mon[0].Subject != "Algebra" || mon[1].Subject != "Physics" {
		t.Errorf("lessons not ordered by start time: %+v", mon)
	}
	if mon[0].Teacher != "Ivanova" || mon[0].Room != "204" {
		t.Errorf("teacher/room = %q/%q, want Ivanova/204", mon[0].Teacher, mon[0].Room)
	}
	if _, ok := snap.Lessons["12"]; ok {
		t.Error("unknown group must not be parsed")
	}

	ex := snap.Exams["10"]
	if len(ex) != 2 {
		t.Fatalf("group 10 exams = %d, want 2", len(ex))
	}
	if ex[0].Subject != "Dictation" || ex[1].Subject != "Algebra test" {
		t.Errorf("exams not ordered by date: %+v", ex)
	}
	if ex[0].Note != "bring a pen" {
		t.Errorf("note = %q", ex[0].Note)
	}
}

func TestStartMinutes(t *testing.T) {
	tests := map[string]int{
		"08:30-09:15": 510,
		"8:05":        485,
		"12:00–12:45": 720,
		"noon":        0,
		"":            0,
	}
	for in, want := range tests {
		if got := startMinutes(in); got != want {
			t.Errorf("startMinutes(%q) = %d, want %d", in, got, want)
		}
	}
}
