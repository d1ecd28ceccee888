package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platesouq/platekit/pkg/encode"
	"github.com/platesouq/platekit/pkg/pipeline"
	"github.com/platesouq/platekit/pkg/plate"
)

// plateOpts holds the command-line flags for the plate command.
type plateOpts struct {
	region  string // emirate key, e.g. "dubai"
	code    string // series code drawn left of the number
	number  string // plate number
	class   string // vehicle class: private, bike, classic
	font    string // display typeface family
	output  string // output file path
	format  string // output format: webp, jpeg, png
	quality float64
	refresh bool
}

// plateCommand creates the plate command for rendering plate artwork.
func (c *CLI) plateCommand() *cobra.Command {
	opts := plateOpts{
		class:   string(plate.ClassPrivate),
		format:  string(pipeline.DefaultPlateFormat),
		quality: encode.DefaultPlateQuality,
	}

	cmd := &cobra.Command{
		Use:   "plate",
		Short: "Render a plate's artwork to an image file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlate(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.region, "region", "r", "", "plate region, e.g. dubai (required)")
	cmd.Flags().StringVar(&opts.code, "code", "", "series code drawn beside the number")
	cmd.Flags().StringVarP(&opts.number, "number", "n", "", "plate number (required)")
	cmd.Flags().StringVar(&opts.class, "class", opts.class, "vehicle class: private (default), bike, classic")
	cmd.Flags().StringVar(&opts.font, "font", "", "display typeface family (default: bundled)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <region>_<number>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: webp (default), jpeg, png")
	cmd.Flags().Float64VarP(&opts.quality, "quality", "q", opts.quality, "encode quality fraction")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached templates and artifacts")
	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

func (c *CLI) runPlate(ctx context.Context, opts *plateOpts) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()
	if runner.Anchors, err = c.anchors(); err != nil {
		return err
	}

	popts := pipeline.Options{
		Plate: plate.Spec{
			Region: opts.region,
			Code:   opts.code,
			Number: opts.number,
			Class:  plate.Class(opts.class),
		},
		FontFamily:   opts.font,
		PlateFormat:  encode.Format(opts.format),
		PlateQuality: opts.quality,
		Refresh:      opts.refresh,
		Logger:       c.Logger,
	}

	p := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering plate")
	spinner.Start()

	result, err := runner.GeneratePlate(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Rendered plate %s", popts.Plate.TemplateKey()))

	output := opts.output
	if output == "" {
		output = fmt.Sprintf("%s_%s.%s", popts.Plate.Region, popts.Plate.Number, popts.PlateFormat.Ext())
	}
	if err := encode.WriteFile(output, result.Plate); err != nil {
		return err
	}

	printSuccess("Generated plate artwork")
	printFile(output)
	printStats(result.TemplateKey, result.Stats.PlateBytes, result.CacheInfo.PlateHit)
	return nil
}
