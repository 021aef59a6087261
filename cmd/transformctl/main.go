// Copyright 2015 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// End Copyright

// Command transformctl is the thing you run to poke at the rule
// interpreter: feed it a source document and a rules document, get the
// transformed JSON on stdout. It mirrors rulio's rulesys as an external
// collaborator, not as tested surface.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/ajaygodbole7/fluxmap/transform"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var sourcePath, rulesPath, outPath string

	cmd := &cobra.Command{
		Use:   "transformctl",
		Short: "Run a FluxMap rule-tree transform against a JSON source document",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readAll(sourcePath, os.Stdin)
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			rules, err := readRules(rulesPath)
			if err != nil {
				return fmt.Errorf("reading rules: %w", err)
			}

			result, err := transform.Transform(source, rules)
			if err != nil {
				return err
			}

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			_, err = out.Write(append(result, '\n'))
			return err
		},
	}

	cmd.Flags().StringVar(&sourcePath, "source", "", "path to the source JSON document (default: stdin)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to the rules document (JSON or YAML; required)")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the result (default: stdout)")
	cmd.MarkFlagRequired("rules")

	return cmd
}

func readAll(path string, fallback io.Reader) ([]byte, error) {
	if path == "" {
		return io.ReadAll(fallback)
	}
	return os.ReadFile(path)
}

// readRules accepts either JSON or YAML on disk, converting YAML to JSON
// since transform.Transform only understands the JSON wire shapes (spec
// §6).
func readRules(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if json.Valid(raw) {
		return raw, nil
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("rules file is neither valid JSON nor YAML: %w", err)
	}
	return json.Marshal(jsonify(generic))
}

// jsonify converts yaml.v2's map[interface{}]interface{} decoding into
// map[string]interface{} so encoding/json can marshal it; yaml.v2 predates
// yaml.v3's native map[string]interface{} support.
func jsonify(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = jsonify(v)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = jsonify(e)
		}
		return out
	default:
		return val
	}
}
