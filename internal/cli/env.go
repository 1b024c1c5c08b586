package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oneenv-project/oneenv/internal/model"
	"github.com/oneenv-project/oneenv/internal/namedenv"
)

// NewEnvCommand creates the "env" parent command for named environments.
func NewEnvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Look up values in named environments",
		Long: `Named environments are sets of variables loaded from dotenv files.
A lookup in a named environment falls back to the common environment, then
to the process environment.`,
	}

	cmd.AddCommand(NewEnvGetCommand())
	return cmd
}

// envGetFlags holds the flag values for the env get command.
type envGetFlags struct {
	// name is the environment to look in. Empty means the common one.
	name string

	// loads are "[NAME=]FILE" dotenv files to load before the lookup.
	loads []string

	// fallback is printed when no layer defines the key.
	fallback string

	// hasFallback records whether --default was given, so that an empty
	// default can be distinguished from none.
	hasFallback bool
}

// NewEnvGetCommand creates the "env get" cobra command.
func NewEnvGetCommand() *cobra.Command {
	flags := &envGetFlags{}

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a variable",
		Long: `Print the value of KEY in a named environment.

Files given with --load are read into the environment named before the '='
sign, or into the common environment when there is no name. Later files win.

Examples:
  oneenv env get DATABASE_URL --load .env
  oneenv env get DATABASE_URL --name prod --load .env --load prod=.env.prod
  oneenv env get LOG_LEVEL --default info`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			flags.hasFallback = cmd.Flags().Changed("default")
			return runEnvGet(cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", namedenv.Common, "Environment name (default: the common environment)")
	cmd.Flags().StringArrayVarP(&flags.loads, "load", "l", nil, "Load a dotenv file as [NAME=]FILE (repeatable)")
	cmd.Flags().StringVarP(&flags.fallback, "default", "d", "", "Value printed when the variable is not set")

	return cmd
}

// runEnvGet is the main logic function for the env get command.
func runEnvGet(stdout io.Writer, key string, flags *envGetFlags) error {
	// Step 1: Load every requested file into its environment.
	store := namedenv.NewStore()
	for _, spec := range flags.loads {
		name, path := parseLoadSpec(spec)
		if err := store.Env(name).Load(path); err != nil {
			return err
		}
	}

	// Step 2: Look the key up through every layer.
	value, found := store.Env(flags.name).Lookup(key)
	if !found {
		if !flags.hasFallback {
			return &model.NotFoundError{Kind: "variable", Name: key}
		}
		value = flags.fallback
	}

	if IsJSONOutput() {
		return printJSON(stdout, map[string]interface{}{
			"environment": flags.name,
			"key":         key,
			"value":       value,
			"found":       found,
		})
	}
	_, err := fmt.Fprintln(stdout, value)
	return err
}

// parseLoadSpec splits "[NAME=]FILE". The part before '=' is a name only
// when it contains no path separator, so a path like ./a=b.env is kept whole.
func parseLoadSpec(spec string) (name, path string) {
	before, after, ok := strings.Cut(spec, "=")
	if !ok || before == "" || strings.ContainsAny(before, `/\`) {
		return namedenv.Common, spec
	}
	return before, after
}
