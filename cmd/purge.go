/*
Copyright © 2021 Edmond Cotterell

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/Daskott/raksha/colors"
	"github.com/Daskott/raksha/server"
	"github.com/Daskott/raksha/server/purge"
	"github.com/spf13/cobra"
)

func createPurgeCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete all users, documents, uploaded files & SOS alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := serverConfig()
			if err != nil {
				return err
			}

			files, err := server.OpenDocumentStorage(config, isDevEnv)
			if err != nil {
				return err
			}

			return runPurge(context.Background(), cmd.OutOrStdout(), files, confirmed)
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm that all user data should be deleted")

	return cmd
}

func runPurge(ctx context.Context, out io.Writer, files purge.FileRemover, confirmed bool) error {
	summary, err := purge.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Current data count:")
	fmt.Fprintf(out, "  Users: %v\n  Documents: %v\n  SOS alerts: %v\n", summary.Users, summary.Documents, summary.SOSAlerts)

	if summary.Empty() {
		fmt.Fprintln(out, colors.Green("No user data found to clear."))
		return nil
	}

	if !confirmed {
		return formattedError("purge deletes ALL user data, run again with --yes to confirm")
	}

	summary, err = purge.Run(ctx, files)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, colors.Green("User data cleanup completed."))
	fmt.Fprintf(out, "  %v users removed\n  %v documents removed (%v files)\n  %v orphaned files removed\n  %v SOS alerts removed\n",
		summary.Users, summary.Documents, summary.FilesRemoved, summary.OrphansRemoved, summary.SOSAlerts)

	return nil
}
