package content

import "encoding/json"

// extra keeps the JSON members a typed struct does not model, so a template's
// opaque settings survive a decode/encode cycle.
type extra map[string]json.RawMessage

func splitExtra(data []byte, known ...string) (extra, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// mergeExtra encodes v and adds the members of x it does not already carry.
func mergeExtra(v any, x extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(x) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range x {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

// roundTrip copies src into dst through JSON, leaving no shared containers.
func roundTrip(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
