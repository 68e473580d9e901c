package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Shape is the physical form a field value takes. The schema decides how a
// shape is interpreted (a text shape may be short text, long text or a URL).
type Shape uint8

const (
	ShapeText Shape = iota
	ShapeBool
	ShapeList
	ShapeItems
)

func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeBool:
		return "boolean"
	case ShapeList:
		return "list"
	case ShapeItems:
		return "itemList"
	default:
		return "unknown"
	}
}

// Value is a single field value. The zero Value is empty text.
type Value struct {
	shape Shape
	text  string
	flag  bool
	list  []string
	items []Item
}

// Item is one entry of an itemList field: a small field mapping of its own.
type Item map[string]Value

// Fields maps field names to values for a section.
type Fields map[string]Value

func Text(s string) Value { return Value{shape: ShapeText, text: s} }

func Bool(b bool) Value { return Value{shape: ShapeBool, flag: b} }

func List(entries ...string) Value {
	if len(entries) == 0 {
		return Value{shape: ShapeList}
	}
	return Value{shape: ShapeList, list: append([]string(nil), entries...)}
}

func Items(items ...Item) Value {
	if len(items) == 0 {
		return Value{shape: ShapeItems}
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return Value{shape: ShapeItems, items: out}
}

func (v Value) Shape() Shape { return v.shape }

// String returns the text of a text value. Booleans render as "true"/"false"
// and lists are joined with ", " so legacy editors can still show them.
func (v Value) String() string {
	switch v.shape {
	case ShapeBool:
		return strconv.FormatBool(v.flag)
	case ShapeList:
		return joinList(v.list)
	case ShapeItems:
		return fmt.Sprintf("%d items", len(v.items))
	default:
		return v.text
	}
}

func (v Value) Flag() bool { return v.shape == ShapeBool && v.flag }

func (v Value) Entries() []string {
	if v.shape != ShapeList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// ItemList returns a copy of the items of an itemList value.
func (v Value) ItemList() []Item {
	if v.shape != ShapeItems || len(v.items) == 0 {
		return nil
	}
	out := make([]Item, len(v.items))
	for i, it := range v.items {
		out[i] = it.Clone()
	}
	return out
}

// Len reports the number of list entries or items.
func (v Value) Len() int {
	switch v.shape {
	case ShapeList:
		return len(v.list)
	case ShapeItems:
		return len(v.items)
	default:
		return 0
	}
}

// IsEmpty reports whether the value counts as "not filled in".
// Booleans are never empty.
func (v Value) IsEmpty() bool {
	switch v.shape {
	case ShapeBool:
		return false
	case ShapeList:
		for _, e := range v.list {
			if trimmed(e) != "" {
				return false
			}
		}
		return true
	case ShapeItems:
		return len(v.items) == 0
	default:
		return trimmed(v.text) == ""
	}
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.shape != o.shape {
		// An empty list and an empty item list are the same thing on the wire.
		return v.Len() == 0 && o.Len() == 0 &&
			(v.shape == ShapeList || v.shape == ShapeItems) &&
			(o.shape == ShapeList || o.shape == ShapeItems)
	}
	switch v.shape {
	case ShapeBool:
		return v.flag == o.flag
	case ShapeList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case ShapeItems:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	default:
		return v.text == o.text
	}
}

func (v Value) clone() Value {
	switch v.shape {
	case ShapeList:
		return List(v.list...)
	case ShapeItems:
		return Items(v.items...)
	default:
		return v
	}
}

// Clone deep-copies an item.
func (it Item) Clone() Item {
	if it == nil {
		return nil
	}
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v.clone()
	}
	return out
}

func (it Item) Equal(o Item) bool {
	if len(it) != len(o) {
		return false
	}
	for k, v := range it {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone deep-copies a field mapping.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v.clone()
	}
	return out
}

func (f Fields) Equal(o Fields) bool {
	return Item(f).Equal(Item(o))
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/* ----------------------------- native mapping ----------------------------- */

// Native converts the value into plain Go data: string, bool, []string or
// []map[string]any. Stores use it to hand values to their encoders.
func (v Value) Native() any {
	switch v.shape {
	case ShapeBool:
		return v.flag
	case ShapeList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	case ShapeItems:
		out := make([]map[string]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Native()
		}
		return out
	default:
		return v.text
	}
}

func (it Item) Native() map[string]any {
	out := make(map[string]any, len(it))
	for k, v := range it {
		out[k] = v.Native()
	}
	return out
}

func (f Fields) Native() map[string]any { return Item(f).Native() }

// FromNative builds a Value from decoded JSON/BSON-like data. Numbers become
// their decimal text. Arrays of strings become lists and arrays of objects
// become item lists.
func FromNative(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Text(""), nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Text(strconv.Itoa(t)), nil
	case int32:
		return Text(strconv.FormatInt(int64(t), 10)), nil
	case int64:
		return Text(strconv.FormatInt(t, 10)), nil
	case float64:
		return Text(formatNumber(t)), nil
	case json.Number:
		return Text(t.String()), nil
	case []string:
		return List(t...), nil
	case []map[string]any:
		items := make([]Item, 0, len(t))
		for _, m := range t {
			it, err := ItemFromNative(m)
			if err != nil {
				return Value{}, err
			}
			items = append(items, it)
		}
		return Items(items...), nil
	case map[string]any:
		// A single object where a list is expected is treated as one item.
		it, err := ItemFromNative(t)
		if err != nil {
			return Value{}, err
		}
		return Items(it), nil
	case []any:
		return fromNativeSlice(t)
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", x)
	}
}

func fromNativeSlice(xs []any) (Value, error) {
	if len(xs) == 0 {
		return List(), nil
	}
	if _, isObj := xs[0].(map[string]any); isObj {
		items := make([]Item, 0, len(xs))
		for i, x := range xs {
			m, ok := x.(map[string]any)
			if !ok {
				return Value{}, fmt.Errorf("item %d: expected object, got %T", i, x)
			}
			it, err := ItemFromNative(m)
			if err != nil {
				return Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, it)
		}
		return Items(items...), nil
	}
	entries := make([]string, 0, len(xs))
	for i, x := range xs {
		v, err := FromNative(x)
		if err != nil {
			return Value{}, fmt.Errorf("entry %d: %w", i, err)
		}
		if v.shape != ShapeText && v.shape != ShapeBool {
			return Value{}, fmt.Errorf("entry %d: nested lists are not supported", i)
		}
		entries = append(entries, v.String())
	}
	return List(entries...), nil
}

// ItemFromNative converts a decoded object into an Item.
func ItemFromNative(m map[string]any) (Item, error) {
	it := make(Item, len(m))
	for k, x := range m {
		v, err := FromNative(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		it[k] = v
	}
	return it, nil
}

// FieldsFromNative converts a decoded object into Fields.
func FieldsFromNative(m map[string]any) (Fields, error) {
	it, err := ItemFromNative(m)
	return Fields(it), err
}

/* --------------------------------- JSON ---------------------------------- */

// MarshalJSON writes the value in its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON accepts any natural JSON form.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	parsed, err := FromNative(x)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
