package scheduler

import (
	"fmt"
	"sync"

	"github.com/tanq16/hauler/internal/downloaders/s3"
	"github.com/tanq16/hauler/internal/engine"
	"github.com/tanq16/hauler/internal/output"
	"github.com/tanq16/hauler/internal/utils"
)

// downloaderRegistry maps job types to their respective downloader implementations
var downloaderRegistry = map[string]utils.Downloader{
	"http": &engine.HTTPDownloader{},
	"s3":   &s3.S3Downloader{},
}

// Run executes the scheduler with the given jobs and number of workers
func Run(jobs []utils.Job, numWorkers int) error {
	log := utils.GetLogger("scheduler")
	outputMgr := output.NewManager()
	outputMgr.StartDisplay()

	jobCh := make(chan utils.Job, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	errorCh := make(chan error, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			processJobs(jobCh, outputMgr, errorCh)
		}(i)
	}
	wg.Wait()
	close(errorCh)
	outputMgr.StopDisplay()
	outputMgr.ShowSummary()

	var failures []error
	for err := range errorCh {
		failures = append(failures, err)
	}
	if len(failures) > 0 {
		log.Debug().Int("count", len(failures)).Msg("Scheduler finished with failures")
		return fmt.Errorf("completed with %d failed jobs: %v", len(failures), failures)
	}
	return nil
}

// processJobs handles job processing for a worker
func processJobs(jobCh <-chan utils.Job, outputMgr *output.Manager, errorCh chan<- error) {
	log := utils.GetLogger("scheduler")
	for job := range jobCh {
		rowID := outputMgr.Register(job.URL, -1)

		downloader, exists := downloaderRegistry[job.JobType]
		if !exists {
			outputMgr.ReportError(rowID, fmt.Errorf("unknown job type: %s", job.JobType))
			errorCh <- fmt.Errorf("unknown job type %s for %s", job.JobType, job.URL)
			continue
		}

		if err := downloader.ValidateJob(&job); err != nil {
			outputMgr.ReportError(rowID, fmt.Errorf("validation failed: %v", err))
			errorCh <- fmt.Errorf("validation failed for %s: %v", job.URL, err)
			continue
		}

		if err := downloader.BuildJob(&job); err != nil {
			outputMgr.ReportError(rowID, fmt.Errorf("build failed: %v", err))
			errorCh <- fmt.Errorf("build failed for %s: %v", job.URL, err)
			continue
		}

		job.ProgressFunc = func(downloaded, total int64) {
			outputMgr.SetTotal(rowID, total)
			outputMgr.Update(rowID, downloaded)
		}
		log.Debug().Str("jobId", job.ID).Str("output", job.OutputPath).Msg("Starting download")
		if err := downloader.Download(&job); err != nil {
			outputMgr.ReportError(rowID, err)
			errorCh <- fmt.Errorf("download failed for %s: %v", job.URL, err)
			continue
		}
		outputMgr.Complete(rowID, fmt.Sprintf("Completed %s", job.OutputPath))
	}
}
