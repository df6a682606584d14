package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/bookcheck/internal/engine"
	"github.com/roach88/bookcheck/internal/harness"
	"github.com/roach88/bookcheck/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <scripts-dir>",
		Short: "Serve interactive playback over websocket",
		Long: `Load every script (*.txt) under a directory and expose a websocket
endpoint at /ws. Clients receive a frame per executed directive (state,
book view, verdict) and send control messages to start, pause, resume,
step, re-pace or clear playback.

Examples:
  bookcheck serve ./scripts
  bookcheck serve ./scripts --addr :9000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return servePlayback(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")

	return cmd
}

func servePlayback(opts *ServeOptions, dir string, cmd *cobra.Command) error {
	scripts, err := loadScripts(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scripts", err)
	}
	if len(scripts) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no scripts found under %s", dir))
	}

	logger := opts.Logger()

	var srv *server.Server
	controller := harness.NewController(engine.New(),
		harness.WithLogger(logger),
		harness.WithObserver(func(u harness.Update) { srv.Publish(u) }),
	)
	srv = server.New(cmd.Context(), controller, scripts, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", srv.Handler())

	httpSrv := &http.Server{Addr: opts.Addr, Handler: mux}
	go func() {
		<-cmd.Context().Done()
		httpSrv.Close()
	}()

	logger.Info("serving playback", "addr", opts.Addr, "scripts", len(scripts))
	fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s (%d scripts)\n", opts.Addr, len(scripts))

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}

// loadScripts reads every .txt file under dir as a named script.
func loadScripts(dir string) ([]harness.Script, error) {
	var scripts []harness.Script

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".txt" {
			return nil
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		scripts = append(scripts, harness.Script{Name: scriptName(path), Text: string(text)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Name < scripts[j].Name })
	return scripts, nil
}
