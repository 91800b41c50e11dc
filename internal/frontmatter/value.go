// Package frontmatter implements the typed key/value header format that
// prefixes every content document, and the document codec built on it.
//
// A document looks like:
//
//	---
//	title: "Building a portfolio"
//	year: 2024
//	draft: false
//	tags:
//	- "go"
//	- "web"
//	summary: |
//	  First line.
//	  Second line.
//	---
//	Body text, never inspected by the codec.
package frontmatter

import (
	"slices"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	default:
		return "absent"
	}
}

// Value is a single front-matter value. The zero Value is Absent.
type Value struct {
	kind Kind
	text string
	num  float64
	b    bool
	list []string
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// List returns a list of plain strings. The items are copied.
func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// Absent returns the value used for missing and explicitly empty fields.
func Absent() Value { return Value{} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is Absent.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsText returns the text held by v.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBoolean returns the boolean held by v.
func (v Value) AsBoolean() (bool, bool) { return v.b, v.kind == KindBoolean }

// AsList returns a copy of the items held by v.
func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindBoolean:
		return v.b == o.b
	case KindList:
		return slices.Equal(v.list, o.list)
	default:
		return true
	}
}

// Interface returns v as a plain Go value: string, float64, bool, []string
// or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindList:
		return slices.Clone(v.list)
	default:
		return nil
	}
}

// Scalar returns text, number and boolean values in their bare written form
// and "" for lists and Absent.
func (v Value) Scalar() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return strconv.Quote(v.text)
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindList:
		return "[" + joinQuoted(v.list) + "]"
	default:
		return "<absent>"
	}
}

func joinQuoted(items []string) string {
	var out string
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += strconv.Quote(it)
	}
	return out
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
