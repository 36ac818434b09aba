package changelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"grid-observer/src/models"
)

// -----------------------------------------------------------------------------
// Replay reconstructs the live rows of a view by folding its changelog:
// sum the diffs per logical key, keep the last row of every key whose sum
// is positive. The fold is pure, so running it twice over the same file
// yields the same rows.
// -----------------------------------------------------------------------------

// KeyFieldFor maps a view to the row field that identifies a logical key.
// Append-only views have no key field: every line with its full content is
// its own key.
func KeyFieldFor(view string) string {
	switch view {
	case models.ViewDeviceStats:
		return "device_type"
	case models.ViewTotalPower:
		return "window_start"
	default:
		return ""
	}
}

// -----------------------------------------------------------------------------

type replayState struct {
	count int
	row   map[string]interface{}
}

// Replay folds flattened changelog lines into live rows. Rows come back in
// first-insertion order of their key.
func Replay(lines []map[string]interface{}, keyField string) []map[string]interface{} {
	states := make(map[string]*replayState)
	var order []string

	for _, line := range lines {
		diff := 1
		if d, ok := line["diff"]; ok {
			switch v := d.(type) {
			case float64:
				diff = int(v)
			case json.Number:
				if n, err := v.Int64(); err == nil {
					diff = int(n)
				}
			}
		}

		row := make(map[string]interface{}, len(line))
		for k, v := range line {
			if k == "diff" {
				continue
			}
			row[k] = v
		}

		var key string
		if keyField != "" {
			key = fmt.Sprint(row[keyField])
		} else {
			raw, err := json.Marshal(row)
			if err != nil {
				continue
			}
			key = string(raw)
		}

		st, ok := states[key]
		if !ok {
			st = &replayState{}
			states[key] = st
			order = append(order, key)
		}
		st.count += diff
		if diff > 0 {
			st.row = row
		}
	}

	live := make([]map[string]interface{}, 0, len(order))
	for _, key := range order {
		if st := states[key]; st.count > 0 && st.row != nil {
			live = append(live, st.row)
		}
	}
	return live
}

// -----------------------------------------------------------------------------

// ReadLines parses a JSONL changelog file. A missing file is an empty view.
func ReadLines(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var line map[string]interface{}
		if err := json.Unmarshal(raw, &line); err != nil {
			// Torn trailing line from a concurrent append, skip it
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// -----------------------------------------------------------------------------

// ReplayFile reads and folds one view file in a single call.
func ReplayFile(path, keyField string) ([]map[string]interface{}, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return Replay(lines, keyField), nil
}
