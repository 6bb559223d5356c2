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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/xorbatch/cmd/xorbatch/opts"
	"github.com/walteh/xorbatch/pkg/config"
	"github.com/walteh/xorbatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ⚙️ NewConfigCmd creates the config command group
func NewConfigCmd(rootOpts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the config file",
	}

	cmd.AddCommand(
		newConfigInitCmd(rootOpts),
		newConfigShowCmd(rootOpts),
	)

	return cmd
}

func newConfigInitCmd(rootOpts *opts.RootOpts) *cobra.Command {
	var o overrides
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Init writes the default settings, plus any flag overrides, to the file
named by --config. The file is always YAML. An existing file is kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := rootOpts.ConfigFile

			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".yaml" && ext != ".yml" {
				return errors.Errorf("config init writes YAML, got %s", path)
			}

			cfg := config.Default()
			if err := o.apply(cmd, cfg); err != nil {
				return err
			}

			files := status.NewManager("")
			exists, err := files.FileExists(ctx, path)
			if err != nil {
				return errors.Errorf("checking config file: %w", err)
			}
			if exists && !force {
				return errors.Errorf("%s already exists, use --force to replace it", path)
			}

			data, err := config.Marshal(cfg)
			if err != nil {
				return errors.Errorf("rendering config: %w", err)
			}
			if err := files.WriteFileAtomic(ctx, path, data); err != nil {
				return errors.Errorf("writing config: %w", err)
			}

			rootOpts.UserLogger.LogValidation(true, "Wrote "+path, nil)
			return nil
		},
	}

	o.addFlags(cmd)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing file")

	return cmd
}

func newConfigShowCmd(rootOpts *opts.RootOpts) *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Long:  `Show prints the settings a run would use, after defaults and flag overrides, as YAML.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Context(), cmd, rootOpts, &o)
			if err != nil {
				return err
			}

			data, err := config.Marshal(cfg)
			if err != nil {
				return errors.Errorf("rendering config: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	o.addFlags(cmd)

	return cmd
}
