package source

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// recencyCutoff returns now minus the query window.
func recencyCutoff(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// keepByDate reports whether the record's first present date field is on or
// after cutoff. Missing or unparsable dates keep the record.
func keepByDate(raw json.RawMessage, cutoff time.Time, fields ...string) bool {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rec); err != nil {
		return true
	}

	for _, f := range fields {
		v, ok := rec[f]
		if !ok {
			continue
		}
		ts, present, ok := parseDateValue(v)
		if !present {
			continue
		}
		if !ok {
			return true
		}
		return !ts.Before(cutoff)
	}
	return true
}

// parseDateValue accepts date strings in any common layout and unix seconds.
func parseDateValue(v json.RawMessage) (ts time.Time, present bool, ok bool) {
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return time.Time{}, true, false
	}
	switch t := x.(type) {
	case nil:
		return time.Time{}, false, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false, false
		}
		parsed, err := dateparse.ParseAny(s)
		if err != nil {
			return time.Time{}, true, false
		}
		return parsed, true, true
	case float64:
		if t == 0 {
			return time.Time{}, false, false
		}
		return time.Unix(int64(t), 0).UTC(), true, true
	case bool:
		if !t {
			return time.Time{}, false, false
		}
	}
	return time.Time{}, true, false
}
