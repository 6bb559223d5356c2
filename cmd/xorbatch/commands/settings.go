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

package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/xorbatch/cmd/xorbatch/opts"
	"github.com/walteh/xorbatch/pkg/config"
	"github.com/walteh/xorbatch/pkg/conflict"
	"gitlab.com/tozd/go/errors"
)

// 🎚️ overrides are command line values that win over the config file
type overrides struct {
	input       string
	mask        string
	key         string
	output      string
	policy      string
	deleteInput bool
	useTimer    bool
	interval    int
}

// addFlags registers the override flags on cmd
func (o *overrides) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "input directory")
	f.StringVarP(&o.mask, "mask", "m", "", "file mask, e.g. \"*.txt\" or \"*.txt;*.log\"")
	f.StringVarP(&o.key, "key", "k", "", "64-bit xor key in hex")
	f.StringVarP(&o.output, "output", "o", "", "output directory")
	f.StringVarP(&o.policy, "policy", "p", "", "conflict policy: overwrite or rename")
	f.BoolVar(&o.deleteInput, "delete", false, "delete each input after its output is written")
	f.BoolVar(&o.useTimer, "timer", false, "re-run every --interval milliseconds")
	f.IntVar(&o.interval, "interval", 0, "timer interval in milliseconds")
}

// apply copies every flag the user set onto cfg
func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputPath = o.input
	}
	if f.Changed("mask") {
		cfg.InputMask = o.mask
	}
	if f.Changed("key") {
		cfg.XORValue = o.key
	}
	if f.Changed("output") {
		cfg.OutputPath = o.output
	}
	if f.Changed("policy") {
		policy, err := conflict.ParsePolicy(o.policy)
		if err != nil {
			return errors.Errorf("parsing --policy: %w", err)
		}
		cfg.ConflictPolicy = policy
	}
	if f.Changed("delete") {
		cfg.DeleteInput = o.deleteInput
	}
	if f.Changed("timer") {
		cfg.UseTimer = o.useTimer
	}
	if f.Changed("interval") {
		cfg.TimerInterval = o.interval
	}
	return nil
}

// 📖 readConfig reads the config file. A missing file is only an error when
// it was named explicitly with --config.
func readConfig(ctx context.Context, cmd *cobra.Command, rootOpts *opts.RootOpts) (*config.Config, error) {
	cfg, err := config.Read(ctx, rootOpts.ConfigFile)
	if err == nil {
		return cfg, nil
	}

	explicit := cmd.Flag("config") != nil && cmd.Flag("config").Changed
	if _, statErr := os.Stat(rootOpts.ConfigFile); os.IsNotExist(statErr) && !explicit {
		zerolog.Ctx(ctx).Debug().Str("path", rootOpts.ConfigFile).Msg("no config file, using defaults")
		return config.Default(), nil
	}
	return nil, err
}

// 🎯 resolveConfig reads the config file, applies flag overrides and validates
func resolveConfig(ctx context.Context, cmd *cobra.Command, rootOpts *opts.RootOpts, o *overrides) (*config.Config, error) {
	cfg, err := readConfig(ctx, cmd, rootOpts)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	if err := o.apply(cmd, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	cfg.WarnInvalidKey(ctx)

	return cfg, nil
}
