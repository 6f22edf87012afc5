package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// collectExtra returns the members of the JSON object data whose names are
// not in known, or nil when there are none.
func collectExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, name := range known {
		delete(raw, name)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// decodeLenient decodes the JSON object data into v one known member at a
// time. A member that does not fit its field is left zero in v and kept
// verbatim in the returned map, together with the unknown members.
func decodeLenient[T any](data []byte, known []string, v *T) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, name := range known {
		value, ok := raw[name]
		if !ok {
			continue
		}
		member, err := json.Marshal(map[string]json.RawMessage{name: value})
		if err != nil {
			return nil, err
		}
		var scratch T
		if json.Unmarshal(member, &scratch) != nil {
			continue
		}
		if err := json.Unmarshal(member, v); err != nil {
			return nil, err
		}
		delete(raw, name)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// appendExtra splices extra members, sorted by name, into the encoded
// object obj. A member of extra named in known replaces the encoded value
// of that field.
func appendExtra(obj []byte, known []string, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return obj, nil
	}
	for _, name := range known {
		if _, ok := extra[name]; ok {
			return encodeMembers(obj, known, extra)
		}
	}

	var buf bytes.Buffer
	obj = bytes.TrimSpace(obj)
	buf.Write(obj[:len(obj)-1])
	for _, name := range slices.Sorted(maps.Keys(extra)) {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value := extra[name]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeMembers re-encodes obj with the known fields in order, preferring
// values from extra, followed by the remaining extra members sorted by name.
func encodeMembers(obj []byte, known []string, extra map[string]json.RawMessage) ([]byte, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(obj, &members); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(name string, value json.RawMessage) error {
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		return nil
	}

	for _, name := range known {
		value, ok := extra[name]
		if !ok {
			value, ok = members[name]
		}
		if !ok {
			continue
		}
		if err := write(name, value); err != nil {
			return nil, err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(extra)) {
		if slices.Contains(known, name) {
			continue
		}
		if err := write(name, extra[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// withoutMembers returns a copy of extra minus the named members, or nil
// when nothing is left.
func withoutMembers(extra map[string]json.RawMessage, names []string) map[string]json.RawMessage {
	out := cloneExtra(extra)
	for _, name := range names {
		delete(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
