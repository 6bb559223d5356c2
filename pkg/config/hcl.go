// Copyright 2025 walteh LLC
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

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/xorbatch/pkg/conflict"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL. Expressions can read the process
// environment through env, e.g. input_path = "${env.HOME}/inbox".
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		InputPath      string `hcl:"input_path,optional"`
		InputMask      string `hcl:"input_mask,optional"`
		XORValue       string `hcl:"xor_value,optional"`
		DeleteInput    bool   `hcl:"delete_input,optional"`
		OutputPath     string `hcl:"output_path,optional"`
		ConflictPolicy string `hcl:"conflict_policy,optional"`
		UseTimer       bool   `hcl:"use_timer,optional"`
		TimerInterval  int    `hcl:"timer_interval,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	policy, err := conflict.ParsePolicy(hclCfg.ConflictPolicy)
	if err != nil {
		return nil, errors.Errorf("decoding HCL: %w", err)
	}

	// Convert to model
	return &Config{
		InputPath:      hclCfg.InputPath,
		InputMask:      hclCfg.InputMask,
		XORValue:       hclCfg.XORValue,
		DeleteInput:    hclCfg.DeleteInput,
		OutputPath:     hclCfg.OutputPath,
		ConflictPolicy: policy,
		UseTimer:       hclCfg.UseTimer,
		TimerInterval:  hclCfg.TimerInterval,
	}, nil
}

// environment exposes the process environment as an HCL object
func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
