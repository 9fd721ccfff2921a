package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"pulse-cli/internal/web"

	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool
	var noBackups bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser view (upcoming list, calendar, help)",
		Long: strings.TrimSpace(`
Serve the browser view from a local HTTP server.

Pages update live (datastar over SSE) when the TUI or another command changes
the store. While running, backups follow backup.schedule from config.json.
Set web.basicAuth in config.json before binding to anything but localhost.
`),
		Example: strings.TrimSpace(`
pulse web
pulse web --addr :3333 --open=false
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.Web.Listen
			}
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			srv, err := web.NewServer(web.ServerConfig{
				Shell:     sh,
				BasicAuth: app.cfg.Web.BasicAuth,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			schedule := app.cfg.Backup.Schedule
			if noBackups {
				schedule = ""
			}
			if err := srv.StartBackups(schedule, func() error {
				_, _, err := app.writeBackup(cmd)
				return err
			}); err != nil {
				return writeErr(cmd, fmt.Errorf("backup.schedule: %w", err))
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			opened := false
			openErr := ""
			if open {
				if err := openPath(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"dir":       app.cfg.DataDir,
					"backend":   app.cfg.Backend,
					"backups":   schedule,
					"auth":      app.cfg.Web.BasicAuth != nil,
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})

			fmt.Fprintf(cmd.ErrOrStderr(), "Pulse web running at %s\n", url)
			if openErr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", openErr)
			}

			return http.Serve(ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port); default web.listen from config")
	cmd.Flags().BoolVar(&open, "open", true, "Open the UI in your default browser")
	cmd.Flags().BoolVar(&noBackups, "no-backups", false, "Disable scheduled backups for this run")
	return cmd
}
