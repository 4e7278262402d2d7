package apiquery

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type pair struct {
	key   string
	value string
}

type encoderFunc func(key string, value reflect.Value) []pair

type encoder struct {
	dateFormat string
	settings   QuerySettings
}

var timeType = reflect.TypeOf(time.Time{})

func (e *encoder) typeEncoder(t reflect.Type) encoderFunc {
	if t == timeType {
		return e.newTimeEncoder()
	}

	switch t.Kind() {
	case reflect.Pointer:
		inner := e.typeEncoder(t.Elem())
		return func(key string, v reflect.Value) []pair {
			if v.IsNil() {
				return nil
			}
			return inner(key, v.Elem())
		}
	case reflect.Struct:
		return e.newStructEncoder(t)
	case reflect.Slice, reflect.Array:
		return e.newArrayEncoder(t)
	case reflect.String:
		return func(key string, v reflect.Value) []pair {
			return []pair{{key, v.String()}}
		}
	case reflect.Bool:
		return func(key string, v reflect.Value) []pair {
			return []pair{{key, strconv.FormatBool(v.Bool())}}
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(key string, v reflect.Value) []pair {
			return []pair{{key, strconv.FormatInt(v.Int(), 10)}}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(key string, v reflect.Value) []pair {
			return []pair{{key, strconv.FormatUint(v.Uint(), 10)}}
		}
	case reflect.Float32, reflect.Float64:
		return func(key string, v reflect.Value) []pair {
			return []pair{{key, strconv.FormatFloat(v.Float(), 'f', -1, 64)}}
		}
	default:
		return func(key string, v reflect.Value) []pair {
			return []pair{{key, fmt.Sprint(v.Interface())}}
		}
	}
}

type fieldEncoder struct {
	index     int
	name      string
	omitempty bool
	fn        encoderFunc
}

func (e *encoder) newStructEncoder(t reflect.Type) encoderFunc {
	var fields []fieldEncoder
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, ok := parseQueryStructTag(field)
		if !ok {
			continue
		}

		fn := e.typeEncoder(field.Type)
		if format, ok := parseFormatStructTag(field); ok && field.Type == timeType {
			fn = e.newTimeEncoderWithFormat(format)
		}
		fields = append(fields, fieldEncoder{index: i, name: tag.name, omitempty: tag.omitempty, fn: fn})
	}

	return func(key string, v reflect.Value) []pair {
		var pairs []pair
		for _, f := range fields {
			fv := v.Field(f.index)
			if f.omitempty && fv.IsZero() {
				continue
			}
			name := f.name
			if key != "" {
				name = key + "." + name
			}
			pairs = append(pairs, f.fn(name, fv)...)
		}
		return pairs
	}
}

func (e *encoder) newArrayEncoder(t reflect.Type) encoderFunc {
	elem := e.typeEncoder(t.Elem())

	return func(key string, v reflect.Value) []pair {
		var pairs []pair
		for i := 0; i < v.Len(); i++ {
			pairs = append(pairs, elem(key, v.Index(i))...)
		}
		if len(pairs) == 0 {
			return nil
		}

		switch e.settings.ArrayFormat {
		case ArrayQueryFormatRepeat:
			return pairs
		default:
			values := make([]string, len(pairs))
			for i, p := range pairs {
				values[i] = p.value
			}
			return []pair{{key, strings.Join(values, ",")}}
		}
	}
}

func (e *encoder) newTimeEncoder() encoderFunc {
	return e.newTimeEncoderWithFormat(e.dateFormat)
}

func (e *encoder) newTimeEncoderWithFormat(format string) encoderFunc {
	return func(key string, v reflect.Value) []pair {
		return []pair{{key, v.Interface().(time.Time).Format(format)}}
	}
}
