package s3

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/hauler/internal/utils"
)

func (d *S3Downloader) Download(job *utils.Job) error {
	bucket := job.Metadata["bucket"].(string)
	key := job.Metadata["key"].(string)
	fileType := job.Metadata["fileType"].(string)
	profile := job.Metadata["profile"].(string)
	s3Client, err := getS3Client(profile)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %v", err)
	}
	if fileType == "folder" {
		log.Info().Str("op", "s3/download").Msgf("Starting folder download for s3://%s/%s", bucket, key)
		return d.downloadFolder(job, bucket, key, s3Client)
	}
	log.Info().Str("op", "s3/download").Msgf("Starting file download for s3://%s/%s", bucket, key)
	return d.downloadFile(job, bucket, key, s3Client)
}

// relayProgress fans byte counts from object transfers into the job's
// progress callback. Several transfers may share one counter, so folder
// downloads report a single whole-folder total.
func relayProgress(job *utils.Job, total int64, downloaded *atomic.Int64) chan int64 {
	ch := make(chan int64, 100)
	go func() {
		for n := range ch {
			current := downloaded.Add(n)
			if job.ProgressFunc != nil {
				job.ProgressFunc(current, total)
			}
		}
	}()
	return ch
}

func (d *S3Downloader) downloadFile(job *utils.Job, bucket, key string, s3Client *S3Client) error {
	size := job.Metadata["size"].(int64)
	var downloaded atomic.Int64
	progressCh := relayProgress(job, size, &downloaded)
	defer close(progressCh)
	return performS3Download(bucket, key, job.OutputPath, s3Client, progressCh)
}

func (d *S3Downloader) downloadFolder(job *utils.Job, bucket, prefix string, s3Client *S3Client) error {
	objects, err := listS3Objects(bucket, prefix, s3Client)
	if err != nil {
		return fmt.Errorf("error listing objects: %v", err)
	}
	if len(objects) == 0 {
		return fmt.Errorf("no objects found in s3://%s/%s", bucket, prefix)
	}
	var totalSize int64
	for _, obj := range objects {
		totalSize += obj.Size
	}
	log.Debug().Str("op", "s3/download").Msgf("Downloading %d objects (%s)", len(objects), utils.FormatBytes(uint64(totalSize)))

	objectCh := make(chan s3Object, len(objects))
	for _, obj := range objects {
		objectCh <- obj
	}
	close(objectCh)

	var downloaded atomic.Int64
	var mu sync.Mutex
	var firstErr error
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	numWorkers := min(job.Connections, len(objects))
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for obj := range objectCh {
				relPath := strings.TrimPrefix(strings.TrimPrefix(obj.Key, prefix), "/")
				outputPath := filepath.Join(job.OutputPath, relPath)
				if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
					setErr(fmt.Errorf("error creating directory: %v", err))
					return
				}
				progressCh := relayProgress(job, totalSize, &downloaded)
				err := performS3Download(bucket, obj.Key, outputPath, s3Client, progressCh)
				close(progressCh)
				if err != nil {
					setErr(fmt.Errorf("error downloading %s: %v", obj.Key, err))
					return
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}
