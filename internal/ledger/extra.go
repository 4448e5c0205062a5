package ledger

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// members holds JSON object members a record does not model. The document is shared with
// the web client and saved as a whole, so anything it stores must survive a round trip.
type members map[string]json.RawMessage

var knownNames sync.Map // reflect.Type -> []string

func fieldNames(t reflect.Type) []string {
	if cached, ok := knownNames.Load(t); ok {
		return cached.([]string)
	}
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	knownNames.Store(t, names)
	return names
}

// decodeRecord unmarshals data into v (a pointer to a struct) and returns the members
// that v has no field for.
func decodeRecord(data []byte, v any) (members, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all members
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, name := range fieldNames(reflect.TypeOf(v).Elem()) {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeRecord marshals v and merges back the preserved members.
// Modelled fields win over preserved ones.
func encodeRecord(v any, extra members) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all members
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}
