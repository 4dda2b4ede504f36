package tba

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/iancoleman/strcase"
)

// Decoder converts a response body into out.
type Decoder interface {
	// Handles reports whether the decoder should be used for out.
	Handles(out any) bool
	Decode(body []byte, out any) error
}

// Codec tries its decoders in order and uses the first that handles out.
type Codec []Decoder

// DefaultCodec passes text through for string targets and decodes JSON with
// snake_case field mapping for everything else.
func DefaultCodec() Codec {
	return Codec{ScalarDecoder{}, SnakeCaseJSON{}}
}

// Decode decodes body into out with the first matching decoder.
func (c Codec) Decode(body []byte, out any) error {
	for _, d := range c {
		if d != nil && d.Handles(out) {
			return d.Decode(body, out)
		}
	}
	return fmt.Errorf("tba: no decoder for %T", out)
}

// ScalarDecoder hands the raw body to *string and *[]byte targets unchanged.
type ScalarDecoder struct{}

func (ScalarDecoder) Handles(out any) bool {
	switch out.(type) {
	case *string, *[]byte:
		return true
	}
	return false
}

func (ScalarDecoder) Decode(body []byte, out any) error {
	switch v := out.(type) {
	case *string:
		*v = string(body)
	case *[]byte:
		*v = append([]byte(nil), body...)
	default:
		return fmt.Errorf("tba: scalar decoder cannot decode into %T", out)
	}
	return nil
}

// SnakeCaseJSON decodes JSON into Go values, binding struct fields such as
// TeamNumber to the wire key team_number. An explicit json tag takes the place
// of the field name.
type SnakeCaseJSON struct{}

func (SnakeCaseJSON) Handles(out any) bool {
	v := reflect.ValueOf(out)
	return v.Kind() == reflect.Pointer && !v.IsNil()
}

func (d SnakeCaseJSON) Decode(body []byte, out any) error {
	return d.Unmarshal(body, out)
}

// Unmarshal has the json.Unmarshal signature so it can be plugged into
// libraries expecting one. Numbers are kept exact until bound, so a fraction
// decoded into an integer field is an error. Types with their own JSON or text
// decoding (time.Time, json.RawMessage) decode themselves.
func (SnakeCaseJSON) Unmarshal(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("tba: unexpected data after JSON value")
	}

	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		TagName:    "json",
		MatchName:  matchSnakeCase,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(selfDecodingHook, skipIgnoredHook),
	})
	if err != nil {
		return err
	}
	return md.Decode(raw)
}

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	numberType          = reflect.TypeOf(json.Number(""))
)

// selfDecodingHook hands values back to encoding/json when the target decodes
// itself or is an empty interface. The latter keeps the json.Unmarshal shapes
// (float64 numbers) for untyped fields.
func selfDecodingHook(_, to reflect.Type, data any) (any, error) {
	switch {
	case to.Kind() == reflect.Interface:
		if to.NumMethod() != 0 {
			return data, nil
		}
	case !decodesItself(to):
		if n, ok := data.(json.Number); ok && to.Kind() == reflect.String && to != numberType {
			return nil, fmt.Errorf("cannot decode number %s into %s", n, to)
		}
		return data, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	target := reflect.New(to)
	if err := json.Unmarshal(encoded, target.Interface()); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}

func decodesItself(t reflect.Type) bool {
	for _, c := range []reflect.Type{t, reflect.PointerTo(t)} {
		if c.Implements(jsonUnmarshalerType) || c.Implements(textUnmarshalerType) {
			return true
		}
	}
	return false
}

// skipIgnoredHook drops the "-" key when decoding into a struct with a
// `json:"-"` field, which would otherwise bind it by exact name.
func skipIgnoredHook(_, to reflect.Type, data any) (any, error) {
	m, ok := data.(map[string]any)
	if !ok || to.Kind() != reflect.Struct {
		return data, nil
	}
	if _, present := m["-"]; !present || !hasIgnoredField(to) {
		return data, nil
	}

	out := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k != "-" {
			out[k] = v
		}
	}
	return out, nil
}

func hasIgnoredField(t reflect.Type) bool {
	ignored := false
	for i := 0; i < t.NumField(); i++ {
		switch tag := t.Field(i).Tag.Get("json"); {
		case tag == "-":
			ignored = true
		case strings.HasPrefix(tag, "-,"):
			// `json:"-,"` names a field "-".
			return false
		}
	}
	return ignored
}

func matchSnakeCase(mapKey, fieldName string) bool {
	if fieldName == "-" {
		return false
	}
	if mapKey == fieldName || strings.EqualFold(mapKey, fieldName) {
		return true
	}
	return mapKey == strcase.ToSnake(fieldName)
}
