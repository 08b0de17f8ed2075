package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// texter is implemented by results that have a human readable form.
type texter interface {
	Text() string
}

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) printer {
	return printer{format: format, w: w}
}

func (p printer) print(v interface{}) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()
	default:
		if t, ok := v.(texter); ok {
			_, err := fmt.Fprintln(p.w, t.Text())
			return err
		}
		_, err := fmt.Fprintln(p.w, v)
		return err
	}
}

// toGeneric runs v through its JSON form so custom JSON marshalers shape the
// YAML output too. Integers keep their full precision.
func toGeneric(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode result")
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, errors.Wrap(err, "failed to decode result")
	}
	return normalizeNumbers(generic), nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	case json.Number:
		if u, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return u
		}
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}

// fields renders aligned "key: value" lines.
type fields [][2]string

func (f fields) String() string {
	width := 0
	for _, kv := range f {
		if len(kv[0]) > width {
			width = len(kv[0])
		}
	}

	var sb strings.Builder
	for i, kv := range f {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(kv[0])
		sb.WriteString(":")
		sb.WriteString(strings.Repeat(" ", width-len(kv[0])+1))
		sb.WriteString(kv[1])
	}
	return sb.String()
}
