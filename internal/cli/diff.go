package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oneenv-project/oneenv/internal/envdiff"
	"github.com/oneenv-project/oneenv/internal/model"
	"github.com/oneenv-project/oneenv/internal/oneenv"
)

// diffFlags holds the flag values for the diff command.
type diffFlags struct {
	// inline marks character-level edits inside changed values.
	inline bool

	// all lists unchanged variables as well.
	all bool

	// exitCode makes the command exit with status 1 when there are changes,
	// like `git diff --exit-code`.
	exitCode bool
}

// NewDiffCommand creates the "diff" cobra command.
func NewDiffCommand() *cobra.Command {
	flags := &diffFlags{}

	cmd := &cobra.Command{
		Use:   "diff PREVIOUS CURRENT",
		Short: "Compare the variables of two env files",
		Long: `Compare two env files variable by variable.

Variables are reported as added (+), removed (-) or changed (~). Comment,
blank and malformed lines are ignored; values are compared as written.

Examples:
  oneenv diff .env.example .env
  oneenv diff old.env new.env --inline
  oneenv diff old.env new.env --json`,

		Args: cobra.ExactArgs(2),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.inline, "inline", false, "Show character-level changes inside values")
	cmd.Flags().BoolVarP(&flags.all, "all", "a", false, "Also list unchanged variables")
	cmd.Flags().BoolVar(&flags.exitCode, "exit-code", false, "Exit with status 1 when the files differ")

	return cmd
}

// runDiff is the main logic function for the diff command.
func runDiff(stdout io.Writer, previousPath, currentPath string, flags *diffFlags) error {
	// Step 1: Read both files.
	previous, err := readText(previousPath)
	if err != nil {
		return err
	}
	current, err := readText(currentPath)
	if err != nil {
		return err
	}

	// Step 2: Classify every variable.
	entries := oneenv.Diff(previous, current)
	summary := envdiff.Summarize(entries)

	// Step 3: Report.
	if IsJSONOutput() {
		if err := printJSON(stdout, diffJSON(entries, summary, flags.all)); err != nil {
			return err
		}
	} else {
		report := envdiff.Format(entries, envdiff.FormatOptions{
			ShowUnchanged: flags.all,
			Inline:        flags.inline,
		})
		for _, line := range strings.SplitAfter(report, "\n") {
			_, _ = io.WriteString(stdout, styleDiffLine(line))
		}
	}

	if flags.exitCode && summary.HasChanges() {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("files differ: %d added, %d removed, %d changed",
				summary.Added, summary.Removed, summary.Changed))
	}
	return nil
}

// readText reads a whole file as a string.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &model.IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

// styleDiffLine colors one report line by its marker.
func styleDiffLine(line string) string {
	body := strings.TrimSuffix(line, "\n")
	if body == "" {
		return line
	}
	suffix := line[len(body):]

	switch body[0] {
	case '+':
		return addedStyle.Render(body) + suffix
	case '-':
		return removedStyle.Render(body) + suffix
	case '~':
		return changedStyle.Render(body) + suffix
	case ' ':
		return mutedStyle.Render(body) + suffix
	default:
		return line
	}
}

// diffResultJSON is the JSON output of the diff command.
type diffResultJSON struct {
	Summary envdiff.Summary   `json:"summary"`
	Entries []model.DiffEntry `json:"entries"`
}

func diffJSON(entries []model.DiffEntry, summary envdiff.Summary, all bool) diffResultJSON {
	result := diffResultJSON{Summary: summary, Entries: make([]model.DiffEntry, 0, len(entries))}
	for _, e := range entries {
		if e.Kind == model.DiffUnchanged && !all {
			continue
		}
		result.Entries = append(result.Entries, e)
	}
	return result
}
