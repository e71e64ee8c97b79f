package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmodel/pkg/server"
)

// shutdownTimeout bounds how long in-flight requests may finish.
const shutdownTimeout = 5 * time.Second

type serveOpts struct {
	addr    string
	diagram string
	noCache bool
}

// serveCommand creates the serve command exposing a diagram over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve a diagram over a read-only HTTP API",
		Long: `Serve a diagram over HTTP.

Routes: /elements, /elements/{id}, /actions, /diagram.json, /diagram.dot,
/diagram.svg and /healthz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.addr == "" {
				opts.addr = c.config.Server.Addr
			}
			return c.runServe(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, localhost:8080)")
	cmd.Flags().StringVarP(&opts.diagram, "diagram", "d", "", "diagram id (default: first diagram)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, opts serveOpts) error {
	logger := log.FromContext(ctx)

	doc, err := c.openDocument(ctx, input)
	if err != nil {
		return err
	}
	ed, _, err := c.newEditor(doc)
	if err != nil {
		return err
	}
	if opts.diagram != "" && opts.diagram != ed.Diagram() {
		if _, err := ed.Open(opts.diagram); err != nil {
			return err
		}
	}

	r, closeCache := c.newRenderer(ctx, opts.noCache)
	defer closeCache()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           server.New(ed, server.WithRenderer(r), server.WithLogger(logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	printSuccess("Serving %s (%s)", ed.Diagram(), statsOf(ed.Registry()))
	printNextStep("Open", fmt.Sprintf("http://%s/diagram.svg", opts.addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
