package apiquery

import (
	"reflect"
	"strings"
)

const queryStructTag = "query"
const formatStructTag = "format"

type parsedStructTag struct {
	name      string
	omitempty bool
}

func parseQueryStructTag(field reflect.StructField) (parsedStructTag, bool) {
	tag := parsedStructTag{}

	raw, ok := field.Tag.Lookup(queryStructTag)
	if !ok || raw == "-" {
		return tag, false
	}

	parts := strings.Split(raw, ",")
	tag.name = parts[0]
	for _, part := range parts[1:] {
		if part == "omitempty" {
			tag.omitempty = true
		}
	}
	if tag.name == "" {
		tag.name = field.Name
	}

	return tag, true
}

func parseFormatStructTag(field reflect.StructField) (string, bool) {
	format, ok := field.Tag.Lookup(formatStructTag)
	return format, ok
}
