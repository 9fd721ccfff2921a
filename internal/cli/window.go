//go:build webview

package cli

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"pulse-cli/internal/web"

	"github.com/spf13/cobra"
	webview "github.com/webview/webview_go"
)

func newWindowCmd(app *App) *cobra.Command {
	var width int
	var height int
	var debug bool

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open the browser view in a native window",
		Long: strings.TrimSpace(`
Serve the browser view on a random localhost port and show it in a native
webview window. Closing the window stops the server.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := app.open(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			srv, err := web.NewServer(web.ServerConfig{Shell: sh})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ln.Close()
			url := "http://" + ln.Addr().String() + "/"
			go func() { _ = http.Serve(ln, srv.Handler()) }()

			w := webview.New(debug)
			defer w.Destroy()
			w.SetTitle("Pulse")
			w.SetSize(width, height, webview.HintNone)
			w.Navigate(url)
			fmt.Fprintf(cmd.ErrOrStderr(), "Pulse window serving %s\n", url)
			w.Run()
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 960, "Window width (pixels)")
	cmd.Flags().IntVar(&height, "height", 720, "Window height (pixels)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable the webview inspector")
	return cmd
}
