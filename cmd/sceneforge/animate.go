// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/services/animator"
	"github.com/sceneforge/sceneforge/services/animator/pipeline"
)

func newAnimateCmd(opts *rootOptions) *cobra.Command {
	var enhance string

	cmd := &cobra.Command{
		Use:   "animate TOPIC",
		Short: "Generate and render one animation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.newLogger()

			clients, err := opts.buildClients()
			if err != nil {
				return err
			}
			svc, err := animator.NewService(opts.serviceConfig(), clients, logger)
			if err != nil {
				return err
			}

			res, err := svc.GenerateAnimation(cmd.Context(), animator.GenerateRequest{
				Topic:         strings.Join(args, " "),
				EnhancePrompt: enhance,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "request: %s\noutcome: %s\nattempts: %d\n",
				res.RequestID, res.Outcome, res.Attempts)
			if res.ArtifactDir != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "artifacts: %s\n", res.ArtifactDir)
			}
			if res.Outcome != pipeline.OutcomeSuccess {
				return fmt.Errorf("animation failed (%s): %s", res.Outcome, res.FatalReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&enhance, "enhance", "", "Extra instruction appended to the topic")
	return cmd
}
