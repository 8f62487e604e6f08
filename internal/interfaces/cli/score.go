package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/molscore/internal/application/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

// withBackend runs fn with a ready backend and releases it afterwards.
func withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	b, err := c.Backend()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.close(); cerr != nil {
			c.Logger.Warn("failed to release backend", logging.Err(cerr))
		}
	}()
	return fn(cmd.Context(), b)
}

func newScoreCmd() *cobra.Command {
	var molecule, property string

	cmd := &cobra.Command{
		Use:   "score [SMILES]",
		Short: "Score one molecule",
		Long: "Score one SMILES string for a property.  The molecule is taken from\n" +
			"--molecule or the single positional argument.",
		Example: "  molscore score -m 'CCO' -p qed\n  molscore score 'c1ccccc1' -p pmi2 -o json",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if molecule != "" {
					return errors.InvalidParam("give the molecule either as --molecule or as an argument, not both")
				}
				molecule = args[0]
			}
			if molecule == "" {
				return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "molecule is required")
			}

			return withBackend(cmd, func(ctx context.Context, b Backend) error {
				res, err := b.Score(ctx, scoring.Request{Molecule: molecule, Property: property})
				if err != nil {
					return err
				}
				return PrintResult(cmd, scoreView{res})
			})
		},
	}

	cmd.Flags().StringVarP(&molecule, "molecule", "m", "", "SMILES string to score")
	cmd.Flags().StringVarP(&property, "property", "p", "", "property to score (default: scoring.default_property)")
	return cmd
}

// scoreView renders a Result in every output format.
type scoreView struct{ *scoring.Result }

func (v scoreView) String() string {
	return fmt.Sprintf("%s\t%s", v.Label, v.Value)
}

func (v scoreView) TableHeaders() []string {
	return []string{"PROPERTY", "LABEL", "VALUE", "CACHED", "DURATION"}
}

func (v scoreView) TableRows() [][]string {
	return [][]string{{v.Property, v.Label, v.Value, strconv.FormatBool(v.Cached), v.Duration.String()}}
}

//Personal.AI order the ending
