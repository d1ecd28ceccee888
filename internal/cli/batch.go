package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/platesouq/platekit/pkg/encode"
	"github.com/platesouq/platekit/pkg/errors"
	"github.com/platesouq/platekit/pkg/geometry"
	"github.com/platesouq/platekit/pkg/pipeline"
	"github.com/platesouq/platekit/pkg/plate"
)

// =============================================================================
// Listing File
// =============================================================================

// batchFile is the TOML batch description: shared defaults plus one entry
// per listing.
type batchFile struct {
	Defaults batchDefaults  `toml:"defaults"`
	Listings []batchListing `toml:"listings"`
}

// batchDefaults apply to every listing that does not override them.
type batchDefaults struct {
	Font        string  `toml:"font"`
	TextScale   float64 `toml:"text_scale"`
	TargetWidth int     `toml:"target_width"`
}

// batchListing is one listing entry.
type batchListing struct {
	ID         string `toml:"id"`
	Background string `toml:"background"`
	Price      *int64 `toml:"price"`
	Phone      string `toml:"phone"`

	Plate plate.Spec `toml:"plate"`

	Placement       geometry.Descriptor  `toml:"placement"`
	CornerPlacement *geometry.Descriptor `toml:"corner_placement"`
	PriceStyling    *geometry.Descriptor `toml:"price_styling"`
	PhoneStyling    *geometry.Descriptor `toml:"phone_styling"`
}

// loadBatchFile parses the TOML batch description.
func loadBatchFile(path string) (*batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read batch file %s", path)
	}
	var bf batchFile
	if err := toml.Unmarshal(data, &bf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse batch file %s", path)
	}
	if len(bf.Listings) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "batch file %s has no listings", path)
	}
	for i := range bf.Listings {
		if bf.Listings[i].ID == "" {
			bf.Listings[i].ID = fmt.Sprintf("listing-%d", i+1)
		}
	}
	return &bf, nil
}

// =============================================================================
// Command
// =============================================================================

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	outDir  string
	workers int
	upload  bool
	upsert  bool
	refresh bool
	plain   bool // disable the progress UI (for CI logs)
}

// batchCommand creates the batch command for bulk preview generation.
func (c *CLI) batchCommand() *cobra.Command {
	opts := batchOpts{
		outDir:  "previews",
		workers: 4,
	}

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Generate previews for every listing in a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", opts.outDir, "output directory for generated previews")
	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "number of concurrent generations")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "publish the artifacts to the configured store")
	cmd.Flags().BoolVar(&opts.upsert, "upsert", false, "replace already-published artifacts")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached templates and artifacts")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable the progress UI")
	c.addStoreFlags(cmd)

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, path string, opts *batchOpts) error {
	bf, err := loadBatchFile(path)
	if err != nil {
		return err
	}

	ctx = withLogger(ctx, c.Logger)
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()
	if runner.Anchors, err = c.anchors(); err != nil {
		return err
	}

	results := c.generateAll(ctx, runner, bf, opts)

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			printError("%s: %s", r.id, errors.UserMessage(r.err))
		}
	}

	if failed > 0 {
		printWarning("Generated %d of %d previews", len(results)-failed, len(results))
		return errors.New(errors.ErrCodeInternal, "%d of %d listings failed", failed, len(results))
	}
	printSuccess("Generated %d previews", len(results))
	if !opts.upload {
		printDetail("Directory: %s", opts.outDir)
	}
	return nil
}

// batchResult is the outcome of one listing.
type batchResult struct {
	id   string
	dest string // output file or published URL
	err  error
}

// generateAll runs the pool of workers and, unless disabled, the progress
// UI on top of it.
func (c *CLI) generateAll(ctx context.Context, runner *pipeline.Runner, bf *batchFile, opts *batchOpts) []batchResult {
	workers := opts.workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan batchListing)
	done := make(chan batchResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for l := range jobs {
				done <- c.generateOne(ctx, runner, bf.Defaults, l, opts)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, l := range bf.Listings {
			select {
			case jobs <- l:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	if opts.plain {
		var results []batchResult
		for r := range done {
			if r.err == nil {
				c.Logger.Info("generated", "listing", r.id, "dest", r.dest)
			} else {
				c.Logger.Error("failed", "listing", r.id, "err", r.err)
			}
			results = append(results, r)
		}
		return results
	}

	model := newBatchModel(len(bf.Listings))
	prog := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	go func() {
		for r := range done {
			prog.Send(batchResultMsg{result: r})
		}
		prog.Send(batchDoneMsg{})
	}()

	final, err := prog.Run()
	if err != nil {
		// Fall back to draining without the UI.
		var results []batchResult
		for r := range done {
			results = append(results, r)
		}
		return results
	}
	return final.(batchModel).results
}

// generateOne renders a single listing's preview.
func (c *CLI) generateOne(ctx context.Context, runner *pipeline.Runner, defaults batchDefaults, l batchListing, opts *batchOpts) batchResult {
	popts := pipeline.Options{
		Plate:           l.Plate,
		Background:      l.Background,
		Placement:       l.Placement,
		CornerPlacement: l.CornerPlacement,
		PriceStyling:    l.PriceStyling,
		PhoneStyling:    l.PhoneStyling,
		Price:           l.Price,
		Phone:           l.Phone,
		FontFamily:      defaults.Font,
		TextScale:       defaults.TextScale,
		TargetWidth:     defaults.TargetWidth,
		SceneFormat:     pipeline.DefaultSceneFormat,
		Refresh:         opts.refresh,
		Upload:          opts.upload,
		Upsert:          opts.upsert,
		ListingID:       l.ID,
		Logger:          loggerFromContext(ctx),
	}

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		return batchResult{id: l.ID, err: err}
	}

	if opts.upload {
		return batchResult{id: l.ID, dest: result.SceneURL}
	}

	out := filepath.Join(opts.outDir, fmt.Sprintf("%s.%s", l.ID, popts.SceneFormat.Ext()))
	if err := encode.WriteFile(out, result.Scene); err != nil {
		return batchResult{id: l.ID, err: err}
	}
	return batchResult{id: l.ID, dest: out}
}

// =============================================================================
// Progress UI
// =============================================================================

type batchResultMsg struct{ result batchResult }
type batchDoneMsg struct{}

// batchModel is the bubbletea model for batch progress.
type batchModel struct {
	total   int
	results []batchResult
	failed  int
	last    string
}

func newBatchModel(total int) batchModel {
	return batchModel{total: total}
}

func (m batchModel) Init() tea.Cmd {
	return nil
}

func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case batchResultMsg:
		m.results = append(m.results, msg.result)
		if msg.result.err != nil {
			m.failed++
			m.last = styleIconError.Render(iconError) + " " + msg.result.id
		} else {
			m.last = styleIconSuccess.Render(iconSuccess) + " " + msg.result.id
		}
	case batchDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m batchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating previews"))
	b.WriteString("\n")

	completed := len(m.results)
	width := 30
	filled := 0
	if m.total > 0 {
		filled = completed * width / m.total
	}
	bar := styleProgressDone.Render(strings.Repeat("█", filled)) +
		styleProgressTodo.Render(strings.Repeat("░", width-filled))
	b.WriteString(fmt.Sprintf("%s %d/%d", bar, completed, m.total))
	if m.failed > 0 {
		b.WriteString("  " + StyleWarning.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	b.WriteString("\n")

	if m.last != "" {
		b.WriteString(m.last)
		b.WriteString("\n")
	}
	return b.String()
}
