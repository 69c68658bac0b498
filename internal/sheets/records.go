package sheets

import (
	"fmt"
	"strings"

	"github.com/vipowerus/schedule-bot/internal/schedule"
)

// toRecords keys every data row by the header row. Short rows are padded with
// empty strings, blank rows and unnamed columns are dropped.
func toRecords(values [][]interface{}) []schedule.Record {
	if len(values) == 0 {
		return nil
	}
	header := make([]string, len(values[0]))
	for i, cell := range values[0] {
		header[i] = strings.TrimSpace(cellString(cell))
	}

	records := make([]schedule.Record, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(schedule.Record, len(header))
		blank := true
		for i, key := range header {
			if key == "" {
				continue
			}
			var v interface{} = ""
			if i < len(row) && row[i] != nil {
				v = row[i]
			}
			if cellString(v) != "" {
				blank = false
			}
			rec[key] = v
		}
		if !blank {
			records = append(records, rec)
		}
	}
	return records
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
