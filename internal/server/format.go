package server

import (
	"fmt"
	"html"
	"strings"
	"time"

	constants "github.com/vipowerus/schedule-bot/internal"
	"github.com/vipowerus/schedule-bot/internal/schedule"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

func formatLessons(lessons []schedule.Lesson) string {
	if len(lessons) == 0 {
		return constants.NoLessonsMessage
	}
	lines := make([]string, 0, len(lessons))
	for i, l := range lessons {
		var extra []string
		if l.Teacher != "" {
			extra = append(extra, html.EscapeString(l.Teacher))
		}
		if l.Room != "" {
			extra = append(extra, "ауд. "+html.EscapeString(l.Room))
		}
		tail := ""
		if len(extra) > 0 {
			tail = " (" + strings.Join(extra, ", ") + ")"
		}
		lines = append(lines, fmt.Sprintf("%d. %s — %s%s", i+1, html.EscapeString(l.Time), html.EscapeString(l.Subject), tail))
	}
	return strings.Join(lines, "\n")
}

// formatDay renders a day as a bold header, the lessons and the exams of
// that day. dateLayout controls how the header date looks.
func formatDay(entry schedule.Entry, dateLayout string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s (%s)</b>\n", weekdayNames[entry.Date.Weekday()], entry.Date.Format(dateLayout))
	b.WriteString(formatLessons(entry.Lessons))
	for _, e := range entry.Exams {
		b.WriteString("\n📌 ")
		b.WriteString(html.EscapeString(e.Subject))
		if e.Time != "" {
			b.WriteString(" — " + html.EscapeString(e.Time))
		}
	}
	return b.String()
}

func formatWeek(entries []schedule.Entry) string {
	chunks := make([]string, 0, len(entries))
	for _, e := range entries {
		chunks = append(chunks, formatDay(e, "02.01"))
	}
	return strings.Join(chunks, "\n\n")
}

func formatExams(exams []schedule.Exam, title string) string {
	if len(exams) == 0 {
		return title + "\n" + constants.NoExamsMessage
	}
	parts := []string{title}
	for i, x := range exams {
		t := ""
		if x.Time != "" {
			t = " — " + html.EscapeString(x.Time)
		}
		note := ""
		if x.Note != "" {
			note = "\n   ⤷ " + html.EscapeString(x.Note)
		}
		parts = append(parts, fmt.Sprintf("%d. %s%s: %s%s", i+1, x.Date.Format("2006-01-02"), t, html.EscapeString(x.Subject), note))
	}
	return strings.Join(parts, "\n")
}

// weekRange renders "19.10–25.10" for the week starting at monday.
func weekRange(monday time.Time) string {
	return monday.Format("02.01") + "–" + monday.AddDate(0, 0, 6).Format("02.01")
}

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "")

// plainText turns a formatted reply into terminal text.
func plainText(s string) string {
	return html.UnescapeString(tagStripper.Replace(s))
}
