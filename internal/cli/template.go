package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oneenv-project/oneenv/internal/config"
	"github.com/oneenv-project/oneenv/internal/docker"
	"github.com/oneenv-project/oneenv/internal/logging"
	"github.com/oneenv-project/oneenv/internal/merge"
	"github.com/oneenv-project/oneenv/internal/model"
	"github.com/oneenv-project/oneenv/internal/oneenv"
	"github.com/oneenv-project/oneenv/internal/registry"
	"github.com/oneenv-project/oneenv/internal/render"
	"github.com/oneenv-project/oneenv/internal/scaffold"
)

// stdoutPath selects standard output as the output file.
const stdoutPath = "-"

// templateFlags holds the flag values for the template command.
type templateFlags struct {
	// output is the file the rendered template is written to. Empty means
	// the configured output; "-" means stdout.
	output string

	// structure prints the scaffolding categories and options.
	structure bool

	// info prints the detail view of one category.
	info string

	// preview prints the variables of one "Category:option" entry.
	preview string

	// debug prints every source and the duplicated variables.
	debug bool

	// labels prints a Dockerfile LABEL instruction documenting the merged
	// variables.
	labels bool

	// images are extra Docker images to read.
	images []string
}

// NewTemplateCommand creates the "template" cobra command.
func NewTemplateCommand() *cobra.Command {
	flags := &templateFlags{}

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Generate .env.example from every template source",
		Long: `Collect every template source, merge duplicated variables and write a
documented .env.example.

The read-only views --structure, --info and --preview show the structured
scaffolding templates instead.

Examples:
  oneenv template
  oneenv template -o - --debug
  oneenv template --structure --json
  oneenv template --info Database
  oneenv template --preview Database:postgres
  oneenv template --labels --image example/app:latest`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default from config: .env.example; '-' for stdout)")
	cmd.Flags().BoolVar(&flags.structure, "structure", false, "Show scaffolding categories and options")
	cmd.Flags().StringVar(&flags.info, "info", "", "Show details of a scaffolding category")
	cmd.Flags().StringVar(&flags.preview, "preview", "", "Preview the variables of CATEGORY:OPTION")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Show discovered sources and duplicated variables")
	cmd.Flags().BoolVar(&flags.labels, "labels", false, "Print a Dockerfile LABEL instruction for the merged variables")
	cmd.Flags().StringSliceVar(&flags.images, "image", nil, "Also read a local Docker image (repeatable)")

	cmd.MarkFlagsMutuallyExclusive("structure", "info", "preview", "labels")

	return cmd
}

// runTemplate is the main logic function for the template command.
func runTemplate(ctx context.Context, stdout, stderr io.Writer, flags *templateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.GetLogger("template")

	// Step 1: Discover every source.
	ws, err := loadWorkspace(ctx, workspaceOptions{Images: flags.images})
	if err != nil {
		return err
	}
	defer ws.Close()

	// Step 2: Read-only scaffolding views do not need a collection pass.
	selector := scaffold.New(ws.Registry.Options())
	switch {
	case flags.structure:
		return printStructure(stdout, selector)
	case flags.info != "":
		return printCategoryInfo(stdout, selector, flags.info)
	case flags.preview != "":
		return printPreview(stdout, selector, flags.preview)
	}

	// Step 3: Collect and merge. Collect logs and skips failed sources.
	agg := oneenv.Merge(ws.Registry)
	logger.Info().
		Int("sources", len(ws.Registry.Sources())).
		Int("variables", agg.Result.Len()).
		Int("failures", len(agg.Failures)).
		Msg("Templates merged")

	if flags.debug {
		printDebugReport(stderr, ws.Registry, agg)
	}

	if flags.labels {
		return printLabels(stdout, agg.Result)
	}

	// Step 4: Render and write.
	text := render.Example(agg.Result, render.Options{Header: render.ExampleHeader})

	output := flags.output
	if output == "" {
		output = config.Resolve(ws.Project.Root, ws.Config.Output)
	}

	if output == stdoutPath {
		if IsJSONOutput() {
			return printJSON(stdout, templateJSON(agg, ""))
		}
		_, err := io.WriteString(stdout, text)
		return err
	}

	if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
		return &model.IOError{Op: "write", Path: output, Err: err}
	}

	if IsJSONOutput() {
		return printJSON(stdout, templateJSON(agg, output))
	}
	_, _ = fmt.Fprintf(stdout, "%s %s (%d variables)\n",
		addedStyle.Render("Wrote"), output, agg.Result.Len())
	if len(agg.Failures) > 0 {
		printWarning(stderr, "%d template source(s) failed; run with -v for details", len(agg.Failures))
	}
	return nil
}

// templateVariableJSON is the JSON form of one merged variable.
type templateVariableJSON struct {
	Name        string           `json:"name"`
	Default     string           `json:"default"`
	Description string           `json:"description,omitempty"`
	Required    bool             `json:"required"`
	Importance  model.Importance `json:"importance"`
	Group       string           `json:"group"`
	Choices     []string         `json:"choices,omitempty"`
	Sources     []string         `json:"sources"`
}

// templateResultJSON is the JSON output of the template command.
type templateResultJSON struct {
	Output    string                 `json:"output,omitempty"`
	Variables []templateVariableJSON `json:"variables"`
	Failures  []failureJSON          `json:"failures"`
}

// failureJSON is the JSON form of a failed source.
type failureJSON struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

func templateJSON(agg *oneenv.Aggregate, output string) templateResultJSON {
	result := templateResultJSON{
		Output:    output,
		Variables: make([]templateVariableJSON, 0, agg.Result.Len()),
		Failures:  make([]failureJSON, 0, len(agg.Failures)),
	}

	agg.Result.Each(func(c *model.CanonicalVariable) {
		result.Variables = append(result.Variables, templateVariableJSON{
			Name:        c.Config.Name,
			Default:     c.Config.Default,
			Description: c.Description(),
			Required:    c.Config.Required,
			Importance:  c.Config.Importance,
			Group:       c.Config.EffectiveGroup(),
			Choices:     c.Config.Choices,
			Sources:     c.Sources,
		})
	})
	for _, f := range agg.Failures {
		result.Failures = append(result.Failures, failureJSON{Source: f.Source, Error: f.Err.Error()})
	}
	return result
}

// printDebugReport lists every source, the failed ones, and the variables
// declared by more than one source.
func printDebugReport(w io.Writer, reg *registry.Registry, agg *oneenv.Aggregate) {
	failed := make(map[string]error, len(agg.Failures))
	for _, f := range agg.Failures {
		failed[f.Source] = f.Err
	}

	_, _ = fmt.Fprintln(w, titleStyle.Render("Template sources"))
	for _, src := range reg.Sources() {
		line := src.Name()
		if err, ok := failed[src.Name()]; ok {
			line += " " + removedStyle.Render("(failed: "+err.Error()+")")
		}
		_, _ = fmt.Fprintln(w, listItemStyle.Render(line))
	}

	dups := agg.Result.Duplicates()
	_, _ = fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Duplicated variables (%d)", len(dups))))
	if len(dups) == 0 {
		_, _ = fmt.Fprintln(w, listItemStyle.Render(mutedStyle.Render("none")))
	}
	for _, d := range dups {
		_, _ = fmt.Fprintln(w, listItemStyle.Render(
			fmt.Sprintf("%s %s", d.Name, mutedStyle.Render("<- "+strings.Join(d.Sources, ", ")))))
	}
	_, _ = fmt.Fprintln(w)
}

// printLabels writes one LABEL instruction documenting every merged
// variable, using the merged description.
func printLabels(w io.Writer, res *merge.Result) error {
	labels := make(map[string]string)
	res.Each(func(c *model.CanonicalVariable) {
		v := c.Config
		v.Description = c.Description()
		for k, val := range docker.BuildLabels(v) {
			labels[k] = val
		}
	})
	_, err := io.WriteString(w, docker.FormatDockerfileLabels(labels))
	return err
}

// printStructure writes every category with its options.
func printStructure(w io.Writer, selector *scaffold.Selector) error {
	structure := selector.Structure()
	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"categories": structure})
	}

	if len(structure) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No scaffolding templates found."))
		return nil
	}
	_, _ = fmt.Fprintln(w, titleStyle.Render("Available template structure"))
	for _, c := range structure {
		_, _ = fmt.Fprintln(w, subtitleStyle.Render(c.Category))
		for _, o := range c.Options {
			_, _ = fmt.Fprintln(w, listItemStyle.Render("- "+o))
		}
	}
	return nil
}

// printCategoryInfo writes the detail view of one category.
func printCategoryInfo(w io.Writer, selector *scaffold.Selector, category string) error {
	detail, err := selector.Category(category)
	if err != nil {
		return err
	}
	if IsJSONOutput() {
		return printJSON(w, detail)
	}

	_, _ = fmt.Fprintln(w, titleStyle.Render("Category: "+detail.Category))
	for _, o := range detail.Options {
		_, _ = fmt.Fprintln(w, subtitleStyle.Render(o.Option))
		_, _ = fmt.Fprintln(w, listItemStyle.Render(fmt.Sprintf(
			"%d variables: %d critical, %d important, %d optional, %d required",
			len(o.Variables), o.Critical, o.Important, o.Optional, o.Required)))
		_, _ = fmt.Fprintln(w, listItemStyle.Render(mutedStyle.Render(strings.Join(o.Variables, ", "))))
	}
	return nil
}

// printPreview writes the variables of one option as env text.
func printPreview(w io.Writer, selector *scaffold.Selector, spec string) error {
	sel, err := model.ParseSelection(spec)
	if err != nil {
		return err
	}
	if sel.Option == "" {
		return &model.ValidationError{
			Field:   "preview",
			Message: fmt.Sprintf("--preview needs CATEGORY:OPTION, got %q", spec),
		}
	}

	opt, err := selector.Option(sel.Category, sel.Option)
	if err != nil {
		return err
	}
	if IsJSONOutput() {
		return printJSON(w, opt)
	}

	// Generation groups ungrouped variables under the category; so does
	// the preview.
	vars := make([]model.VariableConfig, len(opt.Env))
	for i, v := range opt.Env {
		if strings.TrimSpace(v.Group) == "" {
			v.Group = opt.Category
		}
		vars[i] = v
	}

	_, err = io.WriteString(w, render.Render(render.FromConfigs(vars), render.Options{
		Header: []string{fmt.Sprintf("Preview: %s", opt.Key())},
	}))
	return err
}
