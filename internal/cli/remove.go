package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/platesouq/platekit/pkg/encode"
	"github.com/platesouq/platekit/pkg/errors"
	"github.com/platesouq/platekit/pkg/pipeline"
)

// removeOpts holds the command-line flags for the remove command.
type removeOpts struct {
	plateFormat string // format the plate artifact was published in
	sceneFormat string // format the scene artifact was published in
}

// removeCommand creates the remove command for unpublishing a listing's
// artifacts.
func (c *CLI) removeCommand() *cobra.Command {
	opts := removeOpts{
		plateFormat: string(pipeline.DefaultPlateFormat),
		sceneFormat: string(pipeline.DefaultSceneFormat),
	}

	cmd := &cobra.Command{
		Use:   "remove [region] [listing]",
		Short: "Remove a listing's published artifacts from the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRemove(cmd.Context(), args[0], args[1], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.plateFormat, "plate-format", opts.plateFormat, "published plate format: webp (default), jpeg, png")
	cmd.Flags().StringVar(&opts.sceneFormat, "scene-format", opts.sceneFormat, "published scene format: jpeg (default), webp, png")
	c.addStoreFlags(cmd)

	return cmd
}

func (c *CLI) runRemove(ctx context.Context, region, listing string, opts *removeOpts) error {
	plateFormat := encode.Format(opts.plateFormat)
	sceneFormat := encode.Format(opts.sceneFormat)
	if !plateFormat.Valid() {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported plate format %q", opts.plateFormat)
	}
	if !sceneFormat.Valid() {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported scene format %q", opts.sceneFormat)
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()
	if runner.Store == nil {
		return errors.New(errors.ErrCodeUpload, "no store configured; pass --store-dir or --mongo-uri")
	}

	if err := runner.Remove(ctx, region, listing, plateFormat, sceneFormat); err != nil {
		return err
	}

	printSuccess("Removed artifacts for %s/%s", region, listing)
	return nil
}
