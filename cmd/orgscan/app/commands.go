package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/agentstation/orgscan/pkg/scm"
)

// NewScanCommand creates the scan command.
func (a *App) NewScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a full organization scan",
		Long: `Scan consults every configured navigator, reconciles the discovered
projects against the folder's existing children and updates the cached
navigator metadata. The run narrative is appended to the folder's
scan.log and echoed to stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			folder, err := a.Folder()
			if err != nil {
				return err
			}

			logFile, err := os.OpenFile(folder.ScanLogFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			defer logFile.Close()

			listener := scm.NewListener(io.MultiWriter(logFile, cmd.OutOrStdout()))
			result, err := folder.Scan(cmd.Context(), listener)
			fmt.Fprintf(cmd.OutOrStdout(), "Finished: %s (%s)\n", result.Result, result.Elapsed.Round(time.Millisecond))
			if err != nil {
				return err
			}

			for _, child := range folder.Container().Items() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", child.DisplayName(), child.Name())
			}
			return nil
		},
	}
}

// NewStateCommand creates the state command.
func (a *App) NewStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the cached navigator metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			folder, err := a.Folder()
			if err != nil {
				return err
			}

			actions := make(map[string]scm.ActionList)
			for _, navigator := range folder.Navigators() {
				cached := folder.State().Actions(navigator)
				if cached == nil {
					cached = scm.ActionList{}
				}
				actions[navigator.ID()] = cached
			}

			out, err := yaml.Marshal(actions)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// NewChildrenCommand creates the children command.
func (a *App) NewChildrenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "children",
		Short: "List the folder's children",
		RunE: func(cmd *cobra.Command, _ []string) error {
			folder, err := a.Folder()
			if err != nil {
				return err
			}

			for _, child := range folder.Container().Items() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					child.Name(), child.DisplayName(), child.ProjectName())
				for _, source := range child.Sources() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", source.ID())
				}
			}
			return nil
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orgscan %s\n", a.version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:   %s\n", a.commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:    %s\n", a.date)
			fmt.Fprintf(cmd.OutOrStdout(), "  built by: %s\n", a.builtBy)
		},
	}
}
