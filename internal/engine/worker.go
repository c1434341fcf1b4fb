package engine

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/hauler/internal/utils"
)

func (e *Engine) downloadChunk(chunk Chunk, wg *sync.WaitGroup, progressCh chan<- int64, errCh chan<- error) {
	defer wg.Done()
	log := utils.GetLogger("chunk").With().Int("chunkId", chunk.ID).Logger()
	counter := e.progress[chunk.ID]
	var lastErr error
	for attempt := 0; attempt <= e.req.Retries; attempt++ {
		if attempt > 0 {
			if e.paused.Load() {
				return
			}
			log.Debug().Int("attempt", attempt+1).Msg("Retrying download of chunk")
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond) // Backoff
		}
		err := e.fetchChunk(log, chunk, counter, progressCh)
		if err == nil || errors.Is(err, errPauseInterrupt) {
			return
		}
		log.Debug().Err(err).Int("attempt", attempt+1).Msg("Error downloading chunk")
		lastErr = err
	}
	errCh <- lastErr
}

func (e *Engine) fetchChunk(log zerolog.Logger, chunk Chunk, counter *atomic.Int64, progressCh chan<- int64) error {
	resumed := counter.Load()
	startByte := chunk.StartByte + resumed
	if startByte > chunk.EndByte {
		log.Debug().Int64("size", resumed).Msg("Chunk already downloaded, skipping")
		return nil
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", startByte, chunk.EndByte)
	req, err := http.NewRequest("GET", e.req.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", rangeHeader)
	req.Header.Set("Connection", "keep-alive")
	log.Debug().Str("range", rangeHeader).Msg("Sending range request")
	resp, err := e.client.Do(req)
	if err != nil {
		return &ChunkTransferError{Chunk: chunk.ID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		// server ignored the Range header outright
		return &ChunkTransferError{Chunk: chunk.ID, Err: utils.ErrRangeRequestsNotSupported}
	}
	if resp.StatusCode != http.StatusPartialContent {
		return &ChunkTransferError{Chunk: chunk.ID, Status: resp.StatusCode}
	}

	// each worker holds its own handle; ranges are disjoint so no
	// locking is needed around the file
	file, err := os.OpenFile(e.req.OutputPath, os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.Seek(startByte, io.SeekStart); err != nil {
		return err
	}

	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := file.Write(buffer[:bytesRead]); writeErr != nil {
				return writeErr
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
			return &ChunkTransferError{Chunk: chunk.ID, Err: readErr}
		}
		if e.paused.Load() {
			log.Debug().Int64("downloaded", counter.Load()).Msg("Pause observed, stopping after current buffer")
			return errPauseInterrupt
		}
	}
	log.Debug().Int64("totalDownloaded", counter.Load()).Msg("Chunk download completed")
	return nil
}
