package cli

import (
	"github.com/spf13/cobra"

	"github.com/platesouq/platekit/internal/api"
)

// serveCommand creates the serve command for running the HTTP render API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render API",
		Long: `Run the HTTP render API.

Endpoints:
  GET  /healthz          readiness probe
  POST /v1/render/plate  render plate artwork (options as JSON)
  POST /v1/render/scene  compose the marketing preview (options as JSON)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer runner.Close()
			if runner.Anchors, err = c.anchors(); err != nil {
				return err
			}

			server := api.NewServer(runner, c.Logger)
			return server.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", api.DefaultAddr, "listen address")
	c.addStoreFlags(cmd)

	return cmd
}
