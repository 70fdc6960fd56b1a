package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ID identifies an area, table, seat or guest.  Values are normalized at
// the call boundary: a string that round-trips through an integer is kept
// as a number, anything else stays a string.  The zero ID means "no
// reference" and encodes as JSON null.
type ID struct {
	num     int64
	str     string
	numeric bool
}

// IntID returns a numeric ID.
func IntID(n int64) ID { return ID{num: n, numeric: true} }

// NormalizeID converts a raw identifier into an ID.  Accepted inputs are
// strings, the built-in integer kinds, integral floats (as produced by
// encoding/json), json.Number and ID itself.  Anything else is formatted
// with %v and normalized as a string.
func NormalizeID(v any) ID {
	switch t := v.(type) {
	case nil:
		return ID{}
	case ID:
		return t
	case *ID:
		if t == nil {
			return ID{}
		}
		return *t
	case string:
		return idFromString(t)
	case json.Number:
		return numberID(t)
	case int:
		return IntID(int64(t))
	case int32:
		return IntID(int64(t))
	case int64:
		return IntID(t)
	case uint:
		return IntID(int64(t))
	case uint32:
		return IntID(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return ID{str: strconv.FormatUint(t, 10)}
		}
		return IntID(int64(t))
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return IntID(int64(t))
		}
		return ID{str: strconv.FormatFloat(t, 'f', -1, 64)}
	default:
		return idFromString(fmt.Sprintf("%v", t))
	}
}

func idFromString(s string) ID {
	if s == "" {
		return ID{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return IntID(n)
	}
	return ID{str: s}
}

// IsZero reports whether the ID is the empty reference.
func (id ID) IsZero() bool { return !id.numeric && id.str == "" }

// Int returns the numeric value and true when the ID is numeric.
func (id ID) Int() (int64, bool) { return id.num, id.numeric }

// String returns the canonical text form ("" for the zero ID).
func (id ID) String() string {
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// Less orders numeric IDs before string IDs, numerically then lexically.
func (id ID) Less(other ID) bool {
	switch {
	case id.numeric && other.numeric:
		return id.num < other.num
	case id.numeric != other.numeric:
		return id.numeric
	default:
		return id.str < other.str
	}
}

// MarshalJSON encodes numeric IDs as numbers, textual IDs as strings and
// the zero ID as null.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ID{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = idFromString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = numberID(n)
	return nil
}

// numberID maps integral JSON numbers such as 1.0 or 1e3 to numeric IDs,
// matching what NormalizeID does with a float64.  Fractions stay textual.
func numberID(n json.Number) ID {
	id := idFromString(n.String())
	if id.numeric {
		return id
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return IntID(int64(f))
	}
	return id
}

// MarshalText lets IDs act as JSON object keys and YAML scalars.
func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (id *ID) UnmarshalText(b []byte) error {
	*id = idFromString(string(b))
	return nil
}
