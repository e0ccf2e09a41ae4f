package domain

// Strategy names recorded in EnhancementResult provenance.
const (
	StrategyResponses      = "responses"
	StrategyImagesGenerate = "images.generate"
)

// Job is the unit of work for one eligible file.
type Job struct {
	// InputPath is the remote source path.
	InputPath string

	// FileName is the base name of the input.
	FileName string

	// OutputPath is where the enhanced bytes are stored.
	OutputPath string
}

// NewJob derives a Job for an eligible entry.
func NewJob(entry Entry, layout OutputLayout) Job {
	return Job{
		InputPath:  entry.Path,
		FileName:   BaseName(entry.Path, "input.png"),
		OutputPath: BuildOutputPath(entry.Path, layout),
	}
}

// EnhancementResult is enhanced image bytes plus provenance.
type EnhancementResult struct {
	Data []byte

	// Model is the image model used.
	Model string

	// Strategy is StrategyResponses or StrategyImagesGenerate.
	Strategy string

	// ResponsesModel is set only for the responses strategy.
	ResponsesModel string

	// MIMEType of Data, derived from the output format.
	MIMEType string
}
