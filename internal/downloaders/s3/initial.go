package s3

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/hauler/internal/utils"
)

type S3Downloader struct{}

func parseS3URL(url string) (string, string, error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	if trimmed == url {
		return "", "", fmt.Errorf("not an s3 URL: %s", url)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 URL, expected s3://bucket/key: %s", url)
	}
	return parts[0], parts[1], nil
}

func (d *S3Downloader) ValidateJob(job *utils.Job) error {
	bucket, key, err := parseS3URL(job.URL)
	if err != nil {
		return err
	}
	job.Metadata["bucket"] = bucket
	job.Metadata["key"] = key
	if _, ok := job.Metadata["profile"]; !ok {
		job.Metadata["profile"] = "default"
	}
	log.Debug().Str("op", "s3/initial").Msgf("job validated for s3://%s/%s", bucket, key)
	return nil
}

func (d *S3Downloader) BuildJob(job *utils.Job) error {
	bucket := job.Metadata["bucket"].(string)
	key := job.Metadata["key"].(string)
	profile := job.Metadata["profile"].(string)
	s3Client, err := getS3Client(profile)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %v", err)
	}

	fileType, size, err := getS3ObjectInfo(bucket, key, s3Client)
	if err != nil {
		return fmt.Errorf("error getting S3 object info: %v", err)
	}
	job.Metadata["fileType"] = fileType
	job.Metadata["size"] = size
	log.Debug().Str("op", "s3/initial").Msgf("Determined object type: %s, size: %d", fileType, size)

	if job.OutputPath == "" {
		if fileType == "folder" {
			parts := strings.Split(strings.TrimSuffix(key, "/"), "/")
			job.OutputPath = parts[len(parts)-1]
			if job.OutputPath == "" {
				job.OutputPath = bucket
			}
		} else {
			parts := strings.Split(key, "/")
			job.OutputPath = parts[len(parts)-1]
		}
	}
	return nil
}
