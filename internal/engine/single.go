package engine

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tanq16/hauler/internal/utils"
)

// downloadSingle streams the whole resource over one connection. Used
// when ranges are unsupported, the length is unknown, or only one
// connection was requested.
func (e *Engine) downloadSingle(progressCh chan<- int64) error {
	log := utils.GetLogger("single-stream")
	counter := e.progress[0]
	resumeOffset := counter.Load()

	req, err := http.NewRequest("GET", e.req.URL, nil)
	if err != nil {
		return err
	}
	if resumeOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeOffset))
		log.Debug().Int64("resumeOffset", resumeOffset).Msg("Setting Range header for resume")
	}
	req.Header.Set("Connection", "keep-alive")
	resp, err := e.client.Do(req)
	if err != nil {
		return &ChunkTransferError{Chunk: 0, Err: err}
	}
	defer resp.Body.Close()

	if resumeOffset > 0 && resp.StatusCode != http.StatusPartialContent {
		if resp.StatusCode != http.StatusOK {
			return &ChunkTransferError{Chunk: 0, Status: resp.StatusCode}
		}
		log.Warn().Int("statusCode", resp.StatusCode).Msg("Server doesn't support resume, starting from beginning")
		resumeOffset = 0
		counter.Store(0)
		e.aggregate.Store(0)
	} else if resumeOffset == 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return &ChunkTransferError{Chunk: 0, Status: resp.StatusCode}
	}

	fileMode := os.O_WRONLY | os.O_CREATE
	file, err := os.OpenFile(e.req.OutputPath, fileMode, 0644)
	if err != nil {
		return fmt.Errorf("error opening output file: %v", err)
	}
	defer file.Close()
	if resumeOffset == 0 && e.size <= 0 {
		// no pre-sizing happened for unknown lengths; drop stale bytes
		if err := file.Truncate(0); err != nil {
			return err
		}
	}
	if _, err := file.Seek(resumeOffset, io.SeekStart); err != nil {
		return err
	}

	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := file.Write(buffer[:bytesRead]); writeErr != nil {
				return fmt.Errorf("error writing to output file: %v", writeErr)
			}
			counter.Add(int64(bytesRead))
			progressCh <- int64(bytesRead)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if e.paused.Load() {
				return errPauseInterrupt
			}
			return &ChunkTransferError{Chunk: 0, Err: readErr}
		}
		if e.paused.Load() {
			log.Debug().Int64("downloaded", counter.Load()).Msg("Pause observed, stopping after current buffer")
			return errPauseInterrupt
		}
	}
	log.Debug().Int64("resumeOffset", resumeOffset).Int64("totalDownloaded", counter.Load()).Msg("Single-stream download completed")
	return nil
}
