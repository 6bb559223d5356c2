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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/xorbatch/cmd/xorbatch/commands"
	"github.com/walteh/xorbatch/cmd/xorbatch/opts"
	"github.com/walteh/xorbatch/pkg/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup logging
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	// Create root options
	rootOpts := &opts.RootOpts{
		UserLogger: console.NewUserLogger(ctx),
	}

	rootCmd := newRootCmd(rootOpts)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootOpts.UserLogger.LogValidation(false, "Command failed", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around shared options
func newRootCmd(rootOpts *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xorbatch",
		Short: "Apply a repeating 64-bit XOR key to every matching file in a directory",
		Long: `xorbatch reads every file in an input directory that matches a mask,
XORs its bytes with a repeating 64-bit key and writes the result to an
output directory. Existing outputs are overwritten or kept by writing a
numbered copy, and sources can be deleted once written.

Running the same key over the output again restores the original files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(rootOpts.Debug)
		},
	}

	// Add shared flags
	addRootFlags(rootCmd, rootOpts)

	// Add commands
	rootCmd.AddCommand(
		commands.NewRunCmd(rootOpts),
		commands.NewWatchCmd(rootOpts),
		commands.NewConfigCmd(rootOpts),
		newVersionCmd(),
	)

	return rootCmd
}
