package testutil

import (
	"context"
	"fmt"
	"os"

	"github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/engine"
)

// CSVEngine is an in-process engine stand-in.  It reads the molecule from
// the job's input artifact and writes a two-row CSV whose only score column
// is named label, holding value(molecule).
func CSVEngine(label string, value func(molecule string) string) engine.EngineFunc {
	return func(ctx context.Context, job *scoring.JobConfiguration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		in, err := os.ReadFile(job.Parameters.SmilesFile)
		if err != nil {
			return err
		}
		out := fmt.Sprintf("SMILES,%q\n%s,%s\n", label, in, value(string(in)))
		return os.WriteFile(job.Parameters.OutputCSV, []byte(out), 0o600)
	}
}

//Personal.AI order the ending
