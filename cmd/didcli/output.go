package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// printResult writes v in the format selected by --format. YAML goes through
// the JSON encoding first so field names match the json tags.
func printResult(cctx *cli.Context, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	w := cctx.App.Writer

	switch f := cctx.String("format"); f {
	case "json":
		_, err := w.Write(buf.Bytes())
		return err
	case "yaml":
		var generic any
		if err := json.Unmarshal(buf.Bytes(), &generic); err != nil {
			return err
		}

		ye := yaml.NewEncoder(w)
		ye.SetIndent(2)
		if err := ye.Encode(generic); err != nil {
			return err
		}
		return ye.Close()
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}
