package engine

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/tanq16/hauler/internal/utils"
)

// HTTPDownloader adapts the transfer engine to the scheduler's
// Downloader interface.
type HTTPDownloader struct{}

func (d *HTTPDownloader) ValidateJob(job *utils.Job) error {
	parsedURL, err := url.Parse(job.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)
	}
	return nil
}

func (d *HTTPDownloader) BuildJob(job *utils.Job) error {
	job.HTTPClientConfig.HighThreadMode = job.Connections > 5
	client := utils.NewHaulerHTTPClient(job.HTTPClientConfig)

	info, err := Probe(client, job.URL)
	if err != nil {
		return fmt.Errorf("error probing URL: %v", err)
	}

	if job.OutputPath == "" && info.Filename != "" {
		job.OutputPath = info.Filename
	} else if job.OutputPath == "" {
		parsedURL, _ := url.Parse(job.URL)
		pathParts := strings.Split(parsedURL.Path, "/")
		job.OutputPath = pathParts[len(pathParts)-1]
		if job.OutputPath == "" {
			job.OutputPath = "download"
		}
	}

	// Check existing file
	if existingFile, err := os.Stat(job.OutputPath); err == nil {
		if info.Size > 0 && existingFile.Size() == info.Size {
			return fmt.Errorf("file already exists with same size")
		}
		job.OutputPath = utils.RenewOutputPath(job.OutputPath)
	}

	job.Metadata["fileSize"] = info.Size
	job.Metadata["rangeSupported"] = info.SupportsRanges
	return nil
}

func (d *HTTPDownloader) Download(job *utils.Job) error {
	client := utils.NewHaulerHTTPClient(job.HTTPClientConfig)
	eng := New(client)
	return eng.Run(Request{
		URL:         job.URL,
		OutputPath:  job.OutputPath,
		Connections: job.Connections,
		Retries:     job.Retries,
	}, Callbacks{
		OnProgress: func(downloaded, total int64, percent int) {
			if job.ProgressFunc != nil {
				job.ProgressFunc(downloaded, total)
			}
		},
	})
}
