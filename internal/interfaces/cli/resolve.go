package cli

import (
	"bytes"
	"context"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/turtacn/molscore/internal/application/scoring"
)

func newResolveCmd() *cobra.Command {
	var property string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the engine run document for a property",
		Long: "Resolve a property against the current parameters and print the run\n" +
			"document the engine would receive.  Artifact paths are placeholders.\n" +
			"Text output is TOML.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b Backend) error {
				pv, err := b.Preview(ctx, property)
				if err != nil {
					return err
				}
				return PrintResult(cmd, previewView{pv})
			})
		},
	}

	cmd.Flags().StringVarP(&property, "property", "p", "", "property to resolve (default: scoring.default_property)")
	return cmd
}

type previewView struct{ *scoring.Preview }

func (v previewView) String() string {
	var buf bytes.Buffer
	buf.WriteString("# " + v.Label + "\n")
	if err := toml.NewEncoder(&buf).Encode(v.Job); err != nil {
		return "# unrenderable run document: " + err.Error()
	}
	return strings.TrimRight(buf.String(), "\n")
}

//Personal.AI order the ending
