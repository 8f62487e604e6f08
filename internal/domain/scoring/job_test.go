package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveOrFail(t *testing.T, sel Selector) ResolvedComponent {
	t.Helper()
	r, err := Resolve(sel, DefaultParameters())
	require.NoError(t, err)
	return r
}

func TestAssemble_SetsComponentAndPaths(t *testing.T) {
	r := resolveOrFail(t, SelectorQED)
	job := Assemble(r, "/tmp/in.smi", "/tmp/out.csv", JobOptions{})

	assert.Equal(t, RunTypeScoring, job.RunType)
	assert.Equal(t, DefaultDevice, job.Device)
	assert.Equal(t, "/tmp/in.smi", job.Parameters.SmilesFile)
	assert.Equal(t, "/tmp/out.csv", job.Parameters.OutputCSV)
	assert.Equal(t, DefaultSmilesColumn, job.Parameters.SmilesColumn)
	require.Len(t, job.Scoring.Components, 1)
	assert.Equal(t, FamilyQED, job.Scoring.Components[0].Key)
	assert.Equal(t, AggregationGeometricMean, job.Scoring.Type)
}

func TestAssemble_AppliesOptionsAndAggregation(t *testing.T) {
	p := DefaultParameters()
	p.ScoringType = AggregationArithmeticMean
	p.Parallel = true
	r, err := Resolve(SelectorMW, p)
	require.NoError(t, err)

	job := Assemble(r, "in", "out", JobOptions{Device: "cuda:0"})
	assert.Equal(t, "cuda:0", job.Device)
	assert.Equal(t, AggregationArithmeticMean, job.Scoring.Type)
	assert.True(t, job.Scoring.Parallel)
}

func TestAssemble_DoesNotLeakBetweenCalls(t *testing.T) {
	master := DefaultJob()

	first := Assemble(resolveOrFail(t, SelectorQED), "a.smi", "a.csv", JobOptions{})
	second := Assemble(resolveOrFail(t, SelectorPMI2), "b.smi", "b.csv", JobOptions{Device: "cuda"})

	assert.Equal(t, master, DefaultJob(), "master template must be unchanged")

	require.Len(t, first.Scoring.Components, 1)
	assert.Equal(t, FamilyQED, first.Scoring.Components[0].Key)
	assert.Equal(t, "a.smi", first.Parameters.SmilesFile)
	assert.Equal(t, DefaultDevice, first.Device)

	require.Len(t, second.Scoring.Components, 1)
	assert.Equal(t, FamilyPMI, second.Scoring.Components[0].Key)
}

func TestAssemble_ComponentIsPrivateCopy(t *testing.T) {
	r := resolveOrFail(t, SelectorQED)
	job := Assemble(r, "in", "out", JobOptions{})

	*job.Scoring.Components[0].Endpoints[0].Weight = 1
	assert.Equal(t, 0.25, *r.Component.Endpoints[0].Weight)
}

func TestJobConfiguration_SectionsKeepsStructuredOnly(t *testing.T) {
	job := Assemble(resolveOrFail(t, SelectorAlerts), "in.smi", "out.csv", JobOptions{})

	sections := job.Sections()
	assert.ElementsMatch(t, []string{"parameters", "scoring"}, keys(sections))

	params := sections["parameters"].(map[string]any)
	assert.Equal(t, "in.smi", params["smiles_file"])
	assert.Equal(t, "out.csv", params["output_csv"])

	scoring := sections["scoring"].(map[string]any)
	assert.Equal(t, "geometric_mean", scoring["type"])
	assert.Len(t, scoring["component"], 1)
	assert.NotContains(t, scoring, "filename")
}

func TestJobConfiguration_SectionsKeepsPopulatedOptionalSections(t *testing.T) {
	job := DefaultJob()
	job.Scheduler = map[string]any{"max_steps": 1}
	job.Stage = []any{map[string]any{"chkpt_file": "x"}}

	assert.ElementsMatch(t, []string{"parameters", "scoring", "scheduler", "stage"}, keys(job.Sections()))
}

func TestJobConfiguration_DocumentIncludesScalars(t *testing.T) {
	doc := DefaultJob().Document()
	assert.Equal(t, "scoring", doc["run_type"])
	assert.Equal(t, true, doc["use_cuda"])
	assert.Equal(t, "_scoring.json", doc["json_out_config"])
	assert.Nil(t, doc["tb_logdir"])
	assert.Nil(t, doc["inception"])
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

//Personal.AI order the ending
