package scoring

// Stock values of the master job configuration.
const (
	RunTypeScoring       = "scoring"
	DefaultDevice        = "cpu"
	DefaultJSONOutConfig = "_scoring.json"
	DefaultSmilesFile    = "compounds.smi"
	DefaultOutputCSV     = "scoring.csv"
	DefaultSmilesColumn  = "SMILES"
)

// JobConfiguration is the master document handed to the scoring engine.
// Every request builds its own value through Assemble; none is shared.
type JobConfiguration struct {
	RunType       string
	Device        string
	UseCUDA       bool
	TBLogDir      string
	JSONOutConfig string

	Parameters JobParameters
	Scoring    ScoringSection

	// Sections the scoring run type leaves unset.  Non-nil values are passed
	// through to the engine untouched.
	Scheduler        map[string]any
	Responder        map[string]any
	Stage            []any
	LearningStrategy map[string]any
	DiversityFilter  map[string]any
	Inception        map[string]any
}

// JobParameters locates the engine's input and output artifacts.
type JobParameters struct {
	SmilesFile        string
	OutputCSV         string
	SmilesColumn      string
	StandardizeSmiles bool
}

// ScoringSection aggregates the components of one run.
type ScoringSection struct {
	Type       string
	Parallel   bool
	Components []Component
	Filename   string
}

// JobOptions are the per-deployment knobs Assemble applies.  Zero values keep
// the master defaults.
type JobOptions struct {
	Device string
}

// DefaultJob returns a fresh copy of the master configuration.
func DefaultJob() *JobConfiguration {
	return &JobConfiguration{
		RunType:       RunTypeScoring,
		Device:        DefaultDevice,
		UseCUDA:       true,
		JSONOutConfig: DefaultJSONOutConfig,
		Parameters: JobParameters{
			SmilesFile:        DefaultSmilesFile,
			OutputCSV:         DefaultOutputCSV,
			SmilesColumn:      DefaultSmilesColumn,
			StandardizeSmiles: true,
		},
		Scoring: ScoringSection{
			Type:       AggregationGeometricMean,
			Parallel:   false,
			Components: []Component{},
		},
	}
}

// Assemble builds the job for one request: the master defaults, exactly one
// resolved component, and the request's own artifact paths.
func Assemble(resolved ResolvedComponent, inputPath, outputPath string, opts JobOptions) *JobConfiguration {
	job := DefaultJob()
	job.Scoring.Components = []Component{resolved.Component.Clone()}
	if resolved.ScoringType != "" {
		job.Scoring.Type = resolved.ScoringType
	}
	job.Scoring.Parallel = resolved.Parallel
	job.Parameters.SmilesFile = inputPath
	job.Parameters.OutputCSV = outputPath
	if opts.Device != "" {
		job.Device = opts.Device
	}
	return job
}

// Document renders every top-level section of j, scalars included.  Null
// sections appear as nil values.
func (j *JobConfiguration) Document() map[string]any {
	components := make([]any, 0, len(j.Scoring.Components))
	for _, c := range j.Scoring.Components {
		components = append(components, c.Document())
	}
	scoring := map[string]any{
		"type":      j.Scoring.Type,
		"parallel":  j.Scoring.Parallel,
		"component": components,
	}
	if j.Scoring.Filename != "" {
		scoring["filename"] = j.Scoring.Filename
	}

	var tbLogDir any
	if j.TBLogDir != "" {
		tbLogDir = j.TBLogDir
	}

	return map[string]any{
		"run_type":        j.RunType,
		"device":          j.Device,
		"use_cuda":        j.UseCUDA,
		"tb_logdir":       tbLogDir,
		"json_out_config": j.JSONOutConfig,
		"parameters": map[string]any{
			"smiles_file":        j.Parameters.SmilesFile,
			"output_csv":         j.Parameters.OutputCSV,
			"smiles_column":      j.Parameters.SmilesColumn,
			"standardize_smiles": j.Parameters.StandardizeSmiles,
		},
		"scoring":           scoring,
		"scheduler":         nilIfEmptyMap(j.Scheduler),
		"responder":         nilIfEmptyMap(j.Responder),
		"stage":             nilIfEmptySlice(j.Stage),
		"learning_strategy": nilIfEmptyMap(j.LearningStrategy),
		"diversity_filter":  nilIfEmptyMap(j.DiversityFilter),
		"inception":         nilIfEmptyMap(j.Inception),
	}
}

// Sections returns only the operational sections of the document: those
// whose value is a mapping or a list.  Scalar bookkeeping fields and null
// sections are dropped.
func (j *JobConfiguration) Sections() map[string]any {
	out := map[string]any{}
	for k, v := range j.Document() {
		switch v.(type) {
		case map[string]any, []any:
			out[k] = v
		}
	}
	return out
}

func nilIfEmptyMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return cloneValue(m)
}

func nilIfEmptySlice(s []any) any {
	if s == nil {
		return nil
	}
	return cloneValue(s)
}

//Personal.AI order the ending
