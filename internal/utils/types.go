package utils

// Downloader is implemented once per job type and driven by the scheduler.
type Downloader interface {
	Download(job *Job) error
	BuildJob(job *Job) error
	ValidateJob(job *Job) error
}

type Job struct {
	ID               string
	JobType          string
	URL              string
	OutputPath       string
	Connections      int
	Retries          int
	ProgressFunc     func(downloaded, total int64)
	Metadata         map[string]any
	HTTPClientConfig HTTPClientConfig
}

type TransferEntry struct {
	OutputPath string `yaml:"op"`
	URL        string `yaml:"link"`
	Type       string `yaml:"type"`
}
