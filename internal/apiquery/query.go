package apiquery

import (
	"net/url"
	"reflect"
	"time"
)

// Queryer is implemented by parameter structs that build their own query.
type Queryer interface {
	URLQuery() url.Values
}

type QuerySettings struct {
	ArrayFormat ArrayQueryFormat
}

type ArrayQueryFormat int

const (
	ArrayQueryFormatComma ArrayQueryFormat = iota
	ArrayQueryFormatRepeat
)

func MarshalWithSettings(value any, settings QuerySettings) url.Values {
	if q, ok := value.(Queryer); ok {
		return q.URLQuery()
	}

	e := encoder{
		dateFormat: time.RFC3339,
		settings:   settings,
	}
	kv := url.Values{}
	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return kv
	}

	for _, pair := range e.typeEncoder(val.Type())("", val) {
		kv.Add(pair.key, pair.value)
	}
	return kv
}

// Marshal encodes the `query` tagged fields of value. Nil pointers and
// fields tagged omitempty holding their zero value are left out.
func Marshal(value any) url.Values {
	return MarshalWithSettings(value, QuerySettings{})
}
