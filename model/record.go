package model

import (
	"sort"
	"strconv"
	"strings"
)

// Record is the flat attribute map sent for one event.
type Record map[string]string

func NewRecord(eventType string, timestamp uint64) Record {
	return Record{
		"eventType": eventType,
		"timestamp": strconv.FormatUint(timestamp, 10),
	}
}

func (r Record) SetUint(key string, v uint64) {
	r[key] = strconv.FormatUint(v, 10)
}

func (r Record) SetInt(key string, v int64) {
	r[key] = strconv.FormatInt(v, 10)
}

func (r Record) SetFloat(key string, v float32) {
	r[key] = strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func (r Record) EventType() string {
	return r["eventType"]
}

// Keys returns the record keys in ascending order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode renders the record as key=value pairs in key order. Every pair,
// including the last, is followed by '&', and values are written without
// percent-escaping: the receiving service expects exactly this form.
// A value holding '&' or '=' therefore corrupts the body.
func (r Record) Encode() string {
	var b strings.Builder
	for _, k := range r.Keys() {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(r[k])
		b.WriteByte('&')
	}
	return b.String()
}
