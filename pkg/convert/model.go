package convert

import "encoding/json"

// Mapper converts between a user model and its dictionary form.
type Mapper[T any] interface {
	ToDictionary(v T) map[string]any
	// FromDictionary returns false when the mapping does not fit T.
	FromDictionary(m map[string]any) (T, bool)
}

// Model converts JSON bodies into user models through a Mapper.
//
// ArrayFromBytes skips elements that are not objects or that the mapper
// rejects. It fails only when the body is not a JSON array.
type Model[T any] struct {
	Mapper Mapper[T]
}

// NewModel returns a Model converter backed by m.
func NewModel[T any](m Mapper[T]) Model[T] {
	return Model[T]{Mapper: m}
}

func (c Model[T]) FromBytes(data []byte) (T, bool) {
	var zero T
	if c.Mapper == nil {
		return zero, false
	}
	m, ok := JSONObject{}.FromBytes(data)
	if !ok {
		return zero, false
	}
	return c.Mapper.FromDictionary(m)
}

func (c Model[T]) ArrayFromBytes(data []byte) ([]T, bool) {
	res, ok := parseJSON(data)
	if c.Mapper == nil || !ok || !res.IsArray() {
		return nil, false
	}
	items := res.Array()
	out := make([]T, 0, len(items))
	for _, item := range items {
		m, ok := item.Value().(map[string]any)
		if !ok {
			continue
		}
		v, ok := c.Mapper.FromDictionary(m)
		if !ok {
			continue
		}
		out = append(out, v)
	}
	return out, true
}

// JSONMapper maps structs through their encoding/json tags.
type JSONMapper[T any] struct{}

func (JSONMapper[T]) ToDictionary(v T) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func (JSONMapper[T]) FromDictionary(m map[string]any) (T, bool) {
	var v T
	raw, err := json.Marshal(m)
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// MapperFuncs adapts a pair of functions to the Mapper interface.
type MapperFuncs[T any] struct {
	To   func(T) map[string]any
	From func(map[string]any) (T, bool)
}

func (f MapperFuncs[T]) ToDictionary(v T) map[string]any {
	if f.To == nil {
		return nil
	}
	return f.To(v)
}

func (f MapperFuncs[T]) FromDictionary(m map[string]any) (T, bool) {
	if f.From == nil {
		var zero T
		return zero, false
	}
	return f.From(m)
}
