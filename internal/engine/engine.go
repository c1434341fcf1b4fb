package engine

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/tanq16/hauler/internal/utils"
)

type State int

const (
	StateIdle State = iota
	StatePreparing
	StateDownloading
	StatePaused
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateDownloading:
		return "downloading"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Request struct {
	URL         string
	OutputPath  string
	Connections int
	Retries     int // per-chunk retry budget
}

type Callbacks struct {
	OnStart    func()
	OnProgress func(downloaded, total int64, percent int)
	OnComplete func(path string)
	OnError    func(err error)
}

// Engine drives one transfer at a time: probe, plan, concurrent chunk
// workers, pause/resume. Progress and plan survive a pause within the
// engine's lifetime; a fresh Start discards both.
type Engine struct {
	client utils.HTTPDoer
	log    zerolog.Logger

	mu          sync.Mutex
	state       State
	req         Request
	cb          Callbacks
	attemptDone chan struct{} // closed when the current attempt's goroutines exit

	paused atomic.Bool

	probed         bool
	preSized       bool
	size           int64
	rangeSupported bool
	plan           []Chunk
	progress       map[int]*atomic.Int64 // one writer per chunk index
	aggregate      atomic.Int64
}

func New(client utils.HTTPDoer) *Engine {
	return &Engine{
		client: client,
		log:    utils.GetLogger("engine"),
		size:   -1,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Progress returns the aggregate bytes written for the current attempt
// and the probed total size (-1 when unknown).
func (e *Engine) Progress() (downloaded, total int64) {
	return e.aggregate.Load(), e.size
}

// Start launches the transfer and returns immediately.
func (e *Engine) Start(req Request, cb Callbacks) error {
	done, err := e.begin(req, cb)
	if err != nil {
		return err
	}
	go func() {
		defer close(done)
		e.run()
	}()
	return nil
}

// Run is the blocking variant of Start; it returns once the attempt
// completes, fails, or stops on a pause.
func (e *Engine) Run(req Request, cb Callbacks) error {
	done, err := e.begin(req, cb)
	if err != nil {
		return err
	}
	defer close(done)
	return e.run()
}

func (e *Engine) begin(req Request, cb Callbacks) (chan struct{}, error) {
	if req.Connections <= 0 {
		req.Connections = 1
	}
	e.mu.Lock()
	if e.state == StatePreparing || e.state == StateDownloading {
		e.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	prev := e.attemptDone
	e.mu.Unlock()
	// a paused attempt's workers may run for one more buffer after
	// Pause returns; let them drain before discarding their progress
	if prev != nil {
		<-prev
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePreparing || e.state == StateDownloading {
		return nil, ErrAlreadyRunning
	}
	e.state = StatePreparing
	e.paused.Store(false)
	e.req = req
	e.cb = cb
	e.probed = false
	e.preSized = false
	e.size = -1
	e.rangeSupported = false
	e.plan = nil
	e.progress = make(map[int]*atomic.Int64)
	e.aggregate.Store(0)
	done := make(chan struct{})
	e.attemptDone = done
	return done, nil
}

// Pause requests a cooperative stop. Workers finish their current
// buffer before honoring it; a no-op outside Preparing/Downloading.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePreparing || e.state == StateDownloading {
		e.paused.Store(true)
		e.state = StatePaused
		e.log.Debug().Msg("Pause requested")
	}
}

// Resume re-enters a paused transfer, skipping the probe and reusing
// the chunk plan and per-chunk progress. A no-op unless Paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.state != StatePaused {
		e.mu.Unlock()
		return
	}
	e.state = StatePreparing
	prev := e.attemptDone
	done := make(chan struct{})
	e.attemptDone = done
	e.mu.Unlock()
	go func() {
		defer close(done)
		// the paused attempt's workers may still be finishing their
		// current buffer; relaunching before they exit would let them
		// race the new workers on the shared counters
		if prev != nil {
			<-prev
		}
		e.mu.Lock()
		if e.state != StatePreparing {
			// paused again before the old attempt drained
			e.mu.Unlock()
			return
		}
		e.paused.Store(false)
		e.mu.Unlock()
		e.run()
	}()
}

func (e *Engine) run() error {
	if e.cb.OnStart != nil {
		e.cb.OnStart()
	}
	if !e.probed {
		info, err := Probe(e.client, e.req.URL)
		if err != nil {
			return e.fail(err)
		}
		e.size = info.Size
		e.rangeSupported = info.SupportsRanges
		e.probed = true
		e.log.Debug().Int64("size", e.size).Bool("rangeSupported", e.rangeSupported).Msg("Probe complete")
	}
	if e.paused.Load() {
		// pause arrived during probing; no further I/O
		return nil
	}

	if e.size > 0 && !e.preSized {
		// pre-size the destination so positional writes at any offset
		// are valid even when chunks land out of order; a pause during
		// probing means this still has to happen on resume
		file, err := os.OpenFile(e.req.OutputPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return e.fail(err)
		}
		if err := file.Truncate(e.size); err != nil {
			file.Close()
			return e.fail(err)
		}
		file.Close()
		e.preSized = true
	}

	singleStream := e.size <= 0 || !e.rangeSupported || e.req.Connections <= 1
	if singleStream {
		if _, ok := e.progress[0]; !ok {
			e.progress[0] = new(atomic.Int64)
		}
	} else if e.plan == nil {
		e.plan = planChunks(e.size, e.req.Connections)
		for _, chunk := range e.plan {
			e.progress[chunk.ID] = new(atomic.Int64)
		}
	}

	e.mu.Lock()
	if e.state != StatePreparing {
		e.mu.Unlock()
		return nil
	}
	e.state = StateDownloading
	e.mu.Unlock()

	// seed the aggregate with bytes carried over a pause so reported
	// totals stay whole-file accurate
	var carried int64
	for _, counter := range e.progress {
		carried += counter.Load()
	}
	e.aggregate.Store(carried)

	progressCh := make(chan int64, 256)
	aggDone := make(chan struct{})
	go e.aggregateProgress(progressCh, aggDone)

	var wg sync.WaitGroup
	errCh := make(chan error, len(e.plan)+1)
	if singleStream {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.downloadSingle(progressCh); err != nil && !errors.Is(err, errPauseInterrupt) {
				errCh <- err
			}
		}()
	} else {
		for _, chunk := range e.plan {
			wg.Add(1)
			go e.downloadChunk(chunk, &wg, progressCh, errCh)
		}
	}
	wg.Wait()
	close(progressCh)
	<-aggDone
	close(errCh)

	if err := <-errCh; err != nil { // first observed failure wins
		return e.fail(err)
	}
	return e.complete()
}

// aggregateProgress serializes worker progress events so OnProgress
// deliveries are strictly non-decreasing.
func (e *Engine) aggregateProgress(progressCh <-chan int64, done chan<- struct{}) {
	defer close(done)
	for n := range progressCh {
		downloaded := e.aggregate.Add(n)
		if e.cb.OnProgress == nil {
			continue
		}
		if e.size > 0 {
			e.cb.OnProgress(downloaded, e.size, int(downloaded*100/e.size))
		} else {
			e.cb.OnProgress(downloaded, -1, -1)
		}
	}
}

func (e *Engine) fail(err error) error {
	e.mu.Lock()
	if e.state == StatePaused || e.paused.Load() {
		// the attempt was interrupted by a pause; resume owns recovery.
		// the flag check covers a draining attempt whose pause a fresh
		// Resume has already turned back into Preparing
		e.mu.Unlock()
		return nil
	}
	e.state = StateFailed
	onError := e.cb.OnError
	e.mu.Unlock()
	e.log.Debug().Err(err).Msg("Transfer failed")
	if onError != nil {
		onError(err)
	}
	return err
}

func (e *Engine) complete() error {
	e.mu.Lock()
	if e.state != StateDownloading {
		e.mu.Unlock()
		return nil
	}
	e.state = StateCompleted
	onComplete := e.cb.OnComplete
	outputPath := e.req.OutputPath
	e.mu.Unlock()
	e.log.Debug().Str("output", outputPath).Msg("Transfer completed")
	if onComplete != nil {
		onComplete(outputPath)
	}
	return nil
}
