package store

import (
	"fmt"
	"time"
)

// timeLayout is fixed width so lexical order equals chronological order.
// Legacy second-precision values ("2006-01-02 15:04:05") sort correctly
// against it because they are a prefix of the same shape.
const timeLayout = "2006-01-02 15:04:05.000000000"

var parseLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// nullableTime converts an optional time into a bind argument.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// dbTime scans a timestamp column. The sqlite3 driver already converts
// DATETIME columns to time.Time when the text parses; raw strings are
// handled for expressions without a declared type.
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (d *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = dbTime{}
		return nil
	case time.Time:
		*d = dbTime{Time: v.UTC(), Valid: true}
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp value %T", src)
	}
}

func (d *dbTime) parse(s string) error {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*d = dbTime{Time: t.UTC(), Valid: true}
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (d dbTime) ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
