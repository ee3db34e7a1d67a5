package voicebase

type Priority string

const (
	// PriorityHigh moves the job to the front of the job queue for a premium.
	PriorityHigh Priority = "high"
	// PriorityLow moves jobs to the back of the job queue and allows for a discount to be offered.
	PriorityLow Priority = "low"
	// PriorityNormal is the default priority for a job.
	PriorityNormal Priority = "normal"
)

type TranscriptFormattingConfiguration struct {
	EnableNumberFormatting bool `json:"enableNumberFormatting"`
}

type TranscriptConfiguration struct {
	Formatting *TranscriptFormattingConfiguration `json:"formatting,omitempty"`
}

type KnowledgeConfiguration struct {
	EnableDiscovery bool `json:"enableDiscovery"`
}

type SpeechModelConfiguration struct {
	Language   string   `json:"language,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// Configuration provides a way to configure how to transcribe a media object at
// the time of upload.
type Configuration struct {
	Priority    Priority                  `json:"priority,omitempty"`
	Transcript  *TranscriptConfiguration  `json:"transcript,omitempty"`
	Knowledge   *KnowledgeConfiguration   `json:"knowledge,omitempty"`
	SpeechModel *SpeechModelConfiguration `json:"speechModel,omitempty"`
}

// ConfigurationContainer is the form field wrapper the upload endpoint expects.
type ConfigurationContainer struct {
	Configuration *Configuration `json:"configuration"`
}

// transcriptOnlyConfiguration skips knowledge discovery since only the text is used.
func transcriptOnlyConfiguration(language string) *Configuration {
	return &Configuration{
		Priority: PriorityNormal,
		Transcript: &TranscriptConfiguration{
			Formatting: &TranscriptFormattingConfiguration{EnableNumberFormatting: true},
		},
		Knowledge:   &KnowledgeConfiguration{EnableDiscovery: false},
		SpeechModel: &SpeechModelConfiguration{Language: language},
	}
}
