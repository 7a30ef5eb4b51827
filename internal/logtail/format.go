package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Line is one parsed JSON log record.
type Line struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Fields    map[string]string
	Raw       string
}

var reserved = map[string]bool{
	"timestamp": true,
	"level":     true,
	"message":   true,
	"component": true,
	"file":      true,
	"func":      true,
}

// Parse decodes a JSON log line. Lines that are not JSON come back with only
// Raw and Message set.
func Parse(raw string) Line {
	line := Line{Raw: raw, Message: raw}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &record); err != nil {
		return line
	}
	if ts, ok := record["timestamp"].(string); ok {
		line.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	line.Level, _ = record["level"].(string)
	line.Component, _ = record["component"].(string)
	line.Message, _ = record["message"].(string)
	for k, v := range record {
		if reserved[k] {
			continue
		}
		if line.Fields == nil {
			line.Fields = make(map[string]string)
		}
		line.Fields[k] = fmt.Sprint(v)
	}
	return line
}

// String renders "15:04:05 LEVEL [component] message key=value".
func (l Line) String() string {
	if l.Level == "" && l.Time.IsZero() {
		return l.Raw
	}
	var b strings.Builder
	if !l.Time.IsZero() {
		b.WriteString(l.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(l.Level))
	if l.Component != "" {
		fmt.Fprintf(&b, " [%s]", l.Component)
	}
	if l.Message != "" {
		b.WriteByte(' ')
		b.WriteString(l.Message)
	}
	keys := make([]string, 0, len(l.Fields))
	for k := range l.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, l.Fields[k])
	}
	return b.String()
}
