// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/services/animator/validate"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [FILE]",
		Short: "Run the safety and lint checks on a scene script",
		Long: `Runs the same static checks the generation pipeline applies.
Reads FILE, or stdin when no file is given. Exits non-zero when any
finding is reported; security findings are the ones that would reject
a generated script outright.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				script []byte
				err    error
			)
			if len(args) == 1 {
				script, err = os.ReadFile(args[0])
			} else {
				script, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			report := validate.New(logger).Validate(cmd.Context(), string(script))
			if report.OK() {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}

			for _, f := range report.Findings {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", f.Class, f)
			}
			if report.HasSecurity() {
				return fmt.Errorf("script rejected: %d finding(s)", len(report.Findings))
			}
			return fmt.Errorf("%d lint finding(s)", len(report.Findings))
		},
	}
}
