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
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/xorbatch/cmd/xorbatch/opts"
	"github.com/walteh/xorbatch/pkg/config"
	"github.com/walteh/xorbatch/pkg/console"
	"github.com/walteh/xorbatch/pkg/log"
	"github.com/walteh/xorbatch/pkg/operation"
	"github.com/walteh/xorbatch/pkg/schedule"
	"github.com/walteh/xorbatch/pkg/status"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// 🏃 NewRunCmd creates the run command
func NewRunCmd(rootOpts *opts.RootOpts) *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every matching file once",
		Long: `Run processes the input directory once and exits.
It will:
1. Load the config file and apply flag overrides
2. List the files matching the mask
3. XOR each file with the key and write it to the output directory
4. Report each file and the overall progress

With use_timer (or --timer) set, it keeps re-running every timer_interval
milliseconds until interrupted instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "run").Logger().WithContext(cmd.Context())

			cfg, err := resolveConfig(ctx, cmd, rootOpts, &o)
			if err != nil {
				return err
			}

			_, err = execute(ctx, rootOpts, cfg, executeOpts{Timer: cfg.UseTimer})
			return err
		},
	}

	o.addFlags(cmd)

	return cmd
}

// executeOpts selects how the processor is driven
type executeOpts struct {
	// Timer re-triggers runs on the config interval until ctx ends
	Timer bool
	// Immediate starts the first timed run without waiting an interval
	Immediate bool
	// Display overrides the console reporter
	Display status.Reporter
}

// ⚡ execute drives a processor over cfg and renders its events. The
// processor reports through a channel so rendering never blocks the worker.
func execute(ctx context.Context, rootOpts *opts.RootOpts, cfg *config.Config, eo executeOpts) (status.Outcome, error) {
	logger := zerolog.Ctx(ctx)

	events := status.NewChannelReporter()
	defer events.Discard()

	reporters := []status.Reporter{events}
	if rootOpts.Debug {
		reporters = append(reporters, status.NewLogReporter(status.NewDefaultFileFormatter()))
	}

	proc, err := operation.New(operation.Options{Reporter: status.Multi(reporters...)})
	if err != nil {
		return status.Outcome{}, errors.Errorf("creating processor: %w", err)
	}
	if err := proc.Configure(cfg); err != nil {
		return status.Outcome{}, errors.Errorf("configuring processor: %w", err)
	}

	display := eo.Display
	if display == nil {
		display = newDisplay(rootOpts, cfg)
	}

	if h, ok := display.(header); eo.Timer && ok {
		h.Header(fmt.Sprintf("watching %s every %s, press ctrl-c to stop", cfg.InputPath, cfg.Interval()))
	}

	// the consumer must outlive an interrupt so the final events still render
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))

	g.Go(func() error {
		return status.Forward(gctx, events.Events(), display)
	})

	g.Go(func() error {
		defer events.Close()

		if !eo.Timer {
			if err := proc.Run(ctx); err != nil {
				return errors.Errorf("starting run: %w", err)
			}
			<-proc.Done()
			return nil
		}

		logger.Info().Dur("interval", cfg.Interval()).Msg("timer mode, press ctrl-c to stop")
		ticker := &schedule.Ticker{
			Interval:  cfg.Interval(),
			Immediate: eo.Immediate,
			Trigger:   proc.Run,
		}
		err := ticker.Run(ctx)
		proc.Cancel()
		<-proc.Done()
		return err
	})

	if err := g.Wait(); err != nil {
		return status.Outcome{}, err
	}

	return proc.Wait(context.WithoutCancel(ctx))
}

// header is implemented by displays that can print a banner
type header interface {
	Header(msg string)
}

// newDisplay picks a progress bar for terminals and plain lines otherwise
func newDisplay(rootOpts *opts.RootOpts, cfg *config.Config) status.Reporter {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return console.NewProgressReporter(rootOpts.UserLogger, cfg.InputPath)
	}

	level := zerolog.Disabled
	if rootOpts.Debug {
		level = zerolog.DebugLevel
	}
	lines := log.New(os.Stdout, level)
	lines.EachRun(log.RunOperation{
		Input:  cfg.InputPath,
		Mask:   cfg.InputMask,
		Output: cfg.OutputPath,
		Policy: cfg.ConflictPolicy.String(),
	})
	return lines
}
