// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"strconv"
	"time"
)

// AsInt64 converts a row value to int64. Drivers hand back integers in a
// few different widths, and some return numeric text.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case int16:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// AsString converts a row value to a string. NULL becomes "".
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format(time.RFC3339)
	}
	return ""
}

// AsBool converts a row value to bool.
func AsBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	}
	return false
}

// AsTime converts a row value to time.Time. Unknown types yield the zero time.
func AsTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

// AsNullString converts a nullable text column to a string pointer.
func AsNullString(v any) *string {
	if v == nil {
		return nil
	}
	s := AsString(v)
	return &s
}
