package hrisapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
)

// The upstream API has shipped several names for the same field over time.
var (
	idKeys         = []string{"id", "attendance_id"}
	employeeIDKeys = []string{"employee_id", "employeeId"}
	dateKeys       = []string{"date", "work_date", "attendance_date"}
	clockInKeys    = []string{"clock_in", "clockin", "clockin_time", "clock_in_time"}
	clockOutKeys   = []string{"clock_out", "clockout", "clockout_time", "clock_out_time"}
	statusKeys     = []string{"status"}
	listKeys       = []string{"attendances", "records", "items", "history"}
)

// unwrap strips a {"data": ...} envelope when present.
func unwrap(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return trimmed
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func pick(obj map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		case bool, map[string]any, []any:
			continue
		default:
			s = fmt.Sprint(val)
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// NormalizeRecord maps any known upstream field spelling onto attendance.Record.
func NormalizeRecord(obj map[string]any) attendance.Record {
	date := pick(obj, dateKeys)
	if len(date) > 10 {
		date = date[:10]
	}
	return attendance.Record{
		ID:         pick(obj, idKeys),
		EmployeeID: pick(obj, employeeIDKeys),
		Date:       date,
		ClockIn:    pick(obj, clockInKeys),
		ClockOut:   pick(obj, clockOutKeys),
		Status:     pick(obj, statusKeys),
	}
}

func isEmptyRecord(r attendance.Record) bool {
	return r.ID == "" && r.Date == "" && r.ClockIn == "" && r.ClockOut == ""
}

// decodeRecord accepts a single object or a list and returns the first record,
// or nil when the payload carries none.
func decodeRecord(body []byte) (*attendance.Record, error) {
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func decodeRecords(body []byte) ([]attendance.Record, error) {
	raw := unwrap(body)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var items []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode attendance list: %w", err)
		}
	case '{':
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("decode attendance: %w", err)
		}
		for _, key := range listKeys {
			if _, ok := obj[key]; ok {
				var wrapped map[string]json.RawMessage
				if err := json.Unmarshal(raw, &wrapped); err != nil {
					return nil, fmt.Errorf("decode attendance list: %w", err)
				}
				return decodeRecords(wrapped[key])
			}
		}
		rec := NormalizeRecord(obj)
		if isEmptyRecord(rec) {
			return nil, nil
		}
		return []attendance.Record{rec}, nil
	default:
		return nil, fmt.Errorf("unexpected attendance payload: %.40s", string(raw))
	}

	records := make([]attendance.Record, 0, len(items))
	for _, item := range items {
		obj, err := decodeObject(item)
		if err != nil {
			return nil, fmt.Errorf("decode attendance: %w", err)
		}
		records = append(records, NormalizeRecord(obj))
	}
	return records, nil
}

// errorMessage extracts a human readable message from an error body.
func errorMessage(body []byte) string {
	obj, err := decodeObject(bytes.TrimSpace(body))
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	if msg := pick(obj, []string{"message", "error"}); msg != "" {
		return msg
	}
	if nested, ok := obj["error"].(map[string]any); ok {
		return pick(nested, []string{"message"})
	}
	return ""
}
