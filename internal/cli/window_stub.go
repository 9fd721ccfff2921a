//go:build !webview

package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newWindowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    "window",
		Short:  "Open the browser view in a native window (requires -tags webview)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeErr(cmd, errors.New("native window support is not built in; rebuild with: go build -tags webview ./cmd/pulse"))
		},
	}
}
