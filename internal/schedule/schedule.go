// Package schedule holds the lesson and exam data read from the spreadsheet
// and the cache that serves it to chat commands.
package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// Lesson is one row of the weekly timetable.
type Lesson struct {
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Teacher string `json:"teacher,omitempty"`
	Room    string `json:"room,omitempty"`
}

// Exam is a dated test or exam of a group.
type Exam struct {
	Date    time.Time `json:"date"`
	Time    string    `json:"time,omitempty"`
	Subject string    `json:"subject"`
	Note    string    `json:"note,omitempty"`
}

// Entry is everything a group has on one calendar day.
type Entry struct {
	Date    time.Time
	Lessons []Lesson
	Exams   []Exam
}

// Empty reports whether the day has neither lessons nor exams.
func (e Entry) Empty() bool {
	return len(e.Lessons) == 0 && len(e.Exams) == 0
}

// Snapshot is one parsed copy of the spreadsheet. It is never modified after
// parsing; a refresh builds a new one.
type Snapshot struct {
	Lessons      map[string]map[time.Weekday][]Lesson
	Exams        map[string][]Exam
	FetchedAt    time.Time
	ScheduleRows int
	ExamRows     int
	Skipped      int
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Lessons: make(map[string]map[time.Weekday][]Lesson),
		Exams:   make(map[string][]Exam),
	}
}

// Lookup returns the entry of group for the calendar day of day.
func (s *Snapshot) Lookup(group string, day time.Time) Entry {
	day = Day(day)
	entry := Entry{Date: day}
	if lessons := s.Lessons[group][day.Weekday()]; len(lessons) > 0 {
		entry.Lessons = append([]Lesson(nil), lessons...)
	}
	key := day.Format(dateLayout)
	for _, exam := range s.Exams[group] {
		if exam.Date.Format(dateLayout) == key {
			entry.Exams = append(entry.Exams, exam)
		}
	}
	return entry
}

// LookupWeek returns the working days of the week containing anchor:
// Monday to Friday, plus Saturday when it is not empty.
func (s *Snapshot) LookupWeek(group string, anchor time.Time) []Entry {
	monday := MondayOf(anchor)
	entries := make([]Entry, 0, 6)
	for i := 0; i < 6; i++ {
		entry := s.Lookup(group, monday.AddDate(0, 0, i))
		if i == 5 && entry.Empty() {
			break
		}
		entries = append(entries, entry)
	}
	return entries
}

// ExamsBetween returns exams of group dated from..to inclusive.
func (s *Snapshot) ExamsBetween(group string, from, to time.Time) []Exam {
	lo, hi := from.Format(dateLayout), to.Format(dateLayout)
	var out []Exam
	for _, exam := range s.Exams[group] {
		key := exam.Date.Format(dateLayout)
		if key >= lo && key <= hi {
			out = append(out, exam)
		}
	}
	return out
}

// Digest hashes the lessons and exams of group. Two snapshots with the same
// data for a group produce the same digest.
func (s *Snapshot) Digest(group string) string {
	payload := struct {
		Lessons map[time.Weekday][]Lesson `json:"schedule"`
		Exams   []Exam                    `json:"exams"`
	}{
		Lessons: s.Lessons[group],
		Exams:   s.Exams[group],
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MondayOf returns midnight of the Monday of t's week.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return Day(t).AddDate(0, 0, -offset)
}
