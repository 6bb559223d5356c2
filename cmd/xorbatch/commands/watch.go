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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/xorbatch/cmd/xorbatch/opts"
)

// ⏰ NewWatchCmd creates the watch command
func NewWatchCmd(rootOpts *opts.RootOpts) *cobra.Command {
	var o overrides
	var now bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-process the input directory on an interval",
		Long: `Watch re-runs the batch every timer_interval milliseconds until interrupted,
whatever use_timer says. A tick that arrives while the previous run is still
going is dropped. Interrupting stops the current run after the file in hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "watch").Logger().WithContext(cmd.Context())

			cfg, err := resolveConfig(ctx, cmd, rootOpts, &o)
			if err != nil {
				return err
			}
			cfg.UseTimer = true

			_, err = execute(ctx, rootOpts, cfg, executeOpts{Timer: true, Immediate: now})
			return err
		},
	}

	o.addFlags(cmd)
	cmd.Flags().BoolVar(&now, "now", false, "run once immediately instead of waiting for the first interval")

	return cmd
}
