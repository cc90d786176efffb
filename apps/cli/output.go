package main

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (printer, error) {
	switch format {
	case "", formatText:
		return printer{w: w, format: formatText}, nil
	case formatJSON, formatYAML:
		return printer{w: w, format: format}, nil
	default:
		return printer{}, errors.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// print writes v as JSON or YAML, or calls text for the human format.
func (p printer) print(v interface{}, text func(w io.Writer)) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "writing json")
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(toYAMLValue(v)); err != nil {
			return errors.Wrap(err, "writing yaml")
		}
		return errors.Wrap(enc.Close(), "writing yaml")
	default:
		text(p.w)
		return nil
	}
}

// toYAMLValue goes through JSON so that YAML keys follow the json tags.
func toYAMLValue(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
