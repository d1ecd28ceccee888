package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platesouq/platekit/pkg/encode"
	"github.com/platesouq/platekit/pkg/geometry"
	"github.com/platesouq/platekit/pkg/pipeline"
	"github.com/platesouq/platekit/pkg/plate"
)

// sceneOpts holds the command-line flags for the scene command.
// Placement and styling flags take CSS-flavored percentage strings, matching
// the listing configuration they originate from ("70%", "rotate(-12deg)").
type sceneOpts struct {
	region string
	code   string
	number string
	class  string
	font   string

	plateTop       string
	plateLeft      string
	plateWidth     string
	plateTransform string
	plateFilter    string

	corner          bool
	cornerTop       string
	cornerLeft      string
	cornerWidth     string
	cornerTransform string

	price     int64
	phone     string
	priceTop  string
	priceLeft string
	phoneTop  string
	phoneLeft string

	textScale   float64
	targetWidth int

	output  string
	format  string
	quality float64
	refresh bool

	upload  bool
	upsert  bool
	listing string
}

// sceneCommand creates the scene command for composing marketing previews.
func (c *CLI) sceneCommand() *cobra.Command {
	opts := sceneOpts{
		class:     string(plate.ClassPrivate),
		format:    string(pipeline.DefaultSceneFormat),
		quality:   encode.DefaultSceneQuality,
		textScale: 1,
	}

	cmd := &cobra.Command{
		Use:   "scene [background]",
		Short: "Compose the marketing preview for a listing",
		Long: `Compose the full marketing preview: the vehicle art scaled to the
export width, the plate artwork overlaid at its configured placement, and
the price and phone rendered in gold.

The background argument is a file path, URL, or data URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScene(cmd.Context(), args[0], &opts, cmd.Flags().Changed("price"))
		},
	}

	cmd.Flags().StringVarP(&opts.region, "region", "r", "", "plate region, e.g. dubai (required)")
	cmd.Flags().StringVar(&opts.code, "code", "", "series code drawn beside the number")
	cmd.Flags().StringVarP(&opts.number, "number", "n", "", "plate number (required)")
	cmd.Flags().StringVar(&opts.class, "class", opts.class, "vehicle class: private (default), bike, classic")
	cmd.Flags().StringVar(&opts.font, "font", "", "display typeface family (default: bundled)")

	cmd.Flags().StringVar(&opts.plateTop, "plate-top", "", `plate vertical center, e.g. "70%"`)
	cmd.Flags().StringVar(&opts.plateLeft, "plate-left", "", `plate horizontal center, e.g. "50%"`)
	cmd.Flags().StringVar(&opts.plateWidth, "plate-width", "", `plate width, e.g. "18%"`)
	cmd.Flags().StringVar(&opts.plateTransform, "plate-transform", "", `plate transform, e.g. "rotate(-12deg)"`)
	cmd.Flags().StringVar(&opts.plateFilter, "plate-filter", "", `plate filter, e.g. "brightness(0.92) contrast(1.05)"`)

	cmd.Flags().BoolVar(&opts.corner, "corner", false, "add a second plate copy at the corner placement")
	cmd.Flags().StringVar(&opts.cornerTop, "corner-top", "", "corner copy vertical center")
	cmd.Flags().StringVar(&opts.cornerLeft, "corner-left", "", "corner copy horizontal center")
	cmd.Flags().StringVar(&opts.cornerWidth, "corner-width", "", "corner copy width")
	cmd.Flags().StringVar(&opts.cornerTransform, "corner-transform", "", "corner copy transform")

	cmd.Flags().Int64Var(&opts.price, "price", 0, "listing price (omit to render the contact-seller text)")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "seller phone number")
	cmd.Flags().StringVar(&opts.priceTop, "price-top", "", "price text vertical center")
	cmd.Flags().StringVar(&opts.priceLeft, "price-left", "", "price text horizontal center")
	cmd.Flags().StringVar(&opts.phoneTop, "phone-top", "", "phone text vertical center")
	cmd.Flags().StringVar(&opts.phoneLeft, "phone-left", "", "phone text horizontal center")

	cmd.Flags().Float64Var(&opts.textScale, "text-scale", opts.textScale, "gold text size multiplier")
	cmd.Flags().IntVar(&opts.targetWidth, "target-width", 0, "export width in pixels (default: 7680)")

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <region>_<number>_preview.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: jpeg (default), webp, png")
	cmd.Flags().Float64VarP(&opts.quality, "quality", "q", opts.quality, "encode quality fraction")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached templates and artifacts")

	cmd.Flags().BoolVar(&opts.upload, "upload", false, "publish the artifacts to the configured store")
	cmd.Flags().BoolVar(&opts.upsert, "upsert", false, "replace already-published artifacts")
	cmd.Flags().StringVar(&opts.listing, "listing", "", "listing ID for the published object path")
	c.addStoreFlags(cmd)

	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

func (c *CLI) runScene(ctx context.Context, background string, opts *sceneOpts, priced bool) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()
	if runner.Anchors, err = c.anchors(); err != nil {
		return err
	}

	popts := c.sceneOptions(background, opts, priced)

	p := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Composing preview")
	spinner.Start()

	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Composed preview for %s", popts.Plate.TemplateKey()))

	if popts.Upload {
		printSuccess("Published listing artifacts")
		printURL(result.PlateURL)
		printURL(result.SceneURL)
		return nil
	}

	output := opts.output
	if output == "" {
		output = fmt.Sprintf("%s_%s_preview.%s", popts.Plate.Region, popts.Plate.Number, popts.SceneFormat.Ext())
	}
	if err := encode.WriteFile(output, result.Scene); err != nil {
		return err
	}

	printSuccess("Generated marketing preview")
	printFile(output)
	printStats(result.TemplateKey, result.Stats.SceneBytes, result.CacheInfo.SceneHit)
	return nil
}

// sceneOptions maps the command flags onto pipeline options.
func (c *CLI) sceneOptions(background string, opts *sceneOpts, priced bool) pipeline.Options {
	popts := pipeline.Options{
		Plate: plate.Spec{
			Region: opts.region,
			Code:   opts.code,
			Number: opts.number,
			Class:  plate.Class(opts.class),
		},
		Background: background,
		Placement: geometry.Descriptor{
			Top:       opts.plateTop,
			Left:      opts.plateLeft,
			Width:     opts.plateWidth,
			Transform: opts.plateTransform,
			Filter:    opts.plateFilter,
		},
		Phone:        opts.phone,
		FontFamily:   opts.font,
		TextScale:    opts.textScale,
		TargetWidth:  opts.targetWidth,
		SceneFormat:  encode.Format(opts.format),
		SceneQuality: opts.quality,
		Refresh:      opts.refresh,
		Upload:       opts.upload,
		Upsert:       opts.upsert,
		ListingID:    opts.listing,
		Logger:       c.Logger,
	}

	if priced {
		price := opts.price
		popts.Price = &price
	}
	if opts.corner {
		popts.CornerPlacement = &geometry.Descriptor{
			Top:       opts.cornerTop,
			Left:      opts.cornerLeft,
			Width:     opts.cornerWidth,
			Transform: opts.cornerTransform,
		}
	}
	if opts.priceTop != "" || opts.priceLeft != "" {
		popts.PriceStyling = &geometry.Descriptor{Top: opts.priceTop, Left: opts.priceLeft}
	}
	if opts.phoneTop != "" || opts.phoneLeft != "" {
		popts.PhoneStyling = &geometry.Descriptor{Top: opts.phoneTop, Left: opts.phoneLeft}
	}
	return popts
}
