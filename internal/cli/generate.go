package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oneenv-project/oneenv/internal/config"
	"github.com/oneenv-project/oneenv/internal/logging"
	"github.com/oneenv-project/oneenv/internal/model"
	"github.com/oneenv-project/oneenv/internal/oneenv"
)

// generateFlags holds the flag values for the generate command.
type generateFlags struct {
	// output is the file to write. Empty means the configured env_output;
	// "-" means stdout.
	output string

	// importance is the minimum importance to keep. Empty means the
	// configured default.
	importance string

	// force allows overwriting an existing output file.
	force bool

	// images are extra Docker images to read.
	images []string
}

// NewGenerateCommand creates the "generate" cobra command.
func NewGenerateCommand() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate [CATEGORY[:OPTION]...]",
		Short: "Write a .env from selected scaffolding templates",
		Long: `Combine the selected scaffolding options into a .env file.

Each selection is either CATEGORY:OPTION or a bare CATEGORY, which selects
every option of the category. Without selections every category is used.
When several selections declare the same
variable, the later selection wins. Variables without a default are written
only when they are required.

Examples:
  oneenv generate Database:postgres Cache:redis
  oneenv generate Database --importance important -o -
  oneenv generate Database:sqlite --force
  oneenv generate -o -`,

		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default from config: .env; '-' for stdout)")
	cmd.Flags().StringVar(&flags.importance, "importance", "", "Minimum importance: critical, important or optional")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Overwrite an existing output file")
	cmd.Flags().StringSliceVar(&flags.images, "image", nil, "Also read a local Docker image (repeatable)")

	return cmd
}

// runGenerate is the main logic function for the generate command.
func runGenerate(ctx context.Context, stdout, stderr io.Writer, args []string, flags *generateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.GetLogger("generate")

	// Step 1: Parse the selections before touching the filesystem.
	selections := make([]model.Selection, 0, len(args))
	for _, arg := range args {
		sel, err := model.ParseSelection(arg)
		if err != nil {
			return err
		}
		selections = append(selections, sel)
	}

	// Step 2: Discover every source.
	ws, err := loadWorkspace(ctx, workspaceOptions{Images: flags.images})
	if err != nil {
		return err
	}
	defer ws.Close()

	// Step 3: Resolve the selections. An explicit --importance wins over the
	// configured default.
	minImportance := ws.Config.MinImportance()
	if flags.importance != "" {
		imp, err := model.ParseImportance(flags.importance)
		if err != nil {
			return err
		}
		minImportance = imp
	}

	if len(selections) == 0 {
		categories := oneenv.ListCategories(ws.Registry)
		if len(categories) == 0 {
			return model.NewCLIError(model.ExitNotFound, "no scaffolding templates found")
		}
		for _, c := range categories {
			selections = append(selections, model.Selection{Category: c})
		}
	}

	res, err := oneenv.ResolveSelection(ws.Registry, selections, minImportance)
	if err != nil {
		return err
	}
	logger.Info().
		Int("options", len(res.Options)).
		Int("variables", len(res.Order)).
		Str("importance", minImportance.String()).
		Msg("Selections resolved")

	text := oneenv.RenderScaffold(res)

	// Step 4: Write the result.
	output := flags.output
	if output == "" {
		output = config.Resolve(ws.Project.Root, ws.Config.EnvOutput)
	}

	if output == stdoutPath {
		if IsJSONOutput() {
			return printJSON(stdout, generateJSON(res.Emittable(), res.Options, ""))
		}
		_, err := io.WriteString(stdout, text)
		return err
	}

	if _, err := os.Stat(output); err == nil && !flags.force {
		return model.NewCLIError(model.ExitUserCancelled,
			fmt.Sprintf("%s already exists; use --force to overwrite", output))
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &model.IOError{Op: "stat", Path: output, Err: err}
	}

	if err := os.WriteFile(output, []byte(text), 0o600); err != nil {
		return &model.IOError{Op: "write", Path: output, Err: err}
	}

	// Step 5: Warn when the file would be committed.
	warnIfTracked(stderr, ws, output)

	if IsJSONOutput() {
		return printJSON(stdout, generateJSON(res.Emittable(), res.Options, output))
	}
	_, _ = fmt.Fprintf(stdout, "%s %s (%d variables from %d options)\n",
		addedStyle.Render("Wrote"), output, len(res.Emittable()), len(res.Options))
	return nil
}

// warnIfTracked warns when Git does not ignore path. Generated files hold
// secrets and should stay out of version control.
func warnIfTracked(w io.Writer, ws *workspace, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	ignored, err := ws.Locator.IsIgnored(ws.Project, abs)
	if err != nil {
		logger := logging.GetLogger("generate")
		logger.Debug().Err(err).Msg("git check-ignore failed")
		return
	}
	if ws.Project.InGit && !ignored {
		printWarning(w, "%s is not ignored by Git; add it to .gitignore", path)
	}
}

// generateVariableJSON is the JSON form of one generated variable.
type generateVariableJSON struct {
	Name       string           `json:"name"`
	Value      string           `json:"value"`
	Required   bool             `json:"required"`
	Importance model.Importance `json:"importance"`
	Group      string           `json:"group"`
}

// generateResultJSON is the JSON output of the generate command.
type generateResultJSON struct {
	Output    string                 `json:"output,omitempty"`
	Options   []string               `json:"options"`
	Variables []generateVariableJSON `json:"variables"`
}

func generateJSON(vars []model.VariableConfig, keys []model.OptionKey, output string) generateResultJSON {
	result := generateResultJSON{
		Output:    output,
		Options:   make([]string, 0, len(keys)),
		Variables: make([]generateVariableJSON, 0, len(vars)),
	}
	for _, k := range keys {
		result.Options = append(result.Options, k.String())
	}
	for _, v := range vars {
		result.Variables = append(result.Variables, generateVariableJSON{
			Name:       v.Name,
			Value:      v.Default,
			Required:   v.Required,
			Importance: v.Importance,
			Group:      v.EffectiveGroup(),
		})
	}
	return result
}
