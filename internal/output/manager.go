package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/tanq16/hauler/internal/utils"
)

type TransferRow struct {
	ID          int
	Name        string
	Status      string // pending, active, success, error
	Message     string
	Downloaded  int64
	TotalSize   int64
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	Name  string
	Error error
	Time  time.Time
}

// Manager renders a live table of transfers, one row each, refreshed
// on a ticker with ANSI rewrites.
type Manager struct {
	rows        map[int]*TransferRow
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	rowCount    int
	displayWg   sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		rows:        make(map[int]*TransferRow),
		errors:      []ErrorReport{},
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(name string, totalSize int64) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rowCount++
	m.rows[m.rowCount] = &TransferRow{
		ID:          m.rowCount,
		Name:        name,
		Status:      "pending",
		TotalSize:   totalSize,
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	return m.rowCount
}

func (m *Manager) SetTotal(id int, totalSize int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if row, exists := m.rows[id]; exists {
		row.TotalSize = totalSize
		row.LastUpdated = time.Now()
	}
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if row, exists := m.rows[id]; exists {
		row.Message = message
		row.LastUpdated = time.Now()
	}
}

func (m *Manager) Update(id int, downloaded int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if row, exists := m.rows[id]; exists {
		row.Status = "active"
		row.Downloaded = downloaded
		row.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if row, exists := m.rows[id]; exists {
		if message == "" {
			message = fmt.Sprintf("Completed %s", row.Name)
		}
		row.Message = message
		row.Status = "success"
		row.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if row, exists := m.rows[id]; exists {
		row.Status = "error"
		row.Error = err
		row.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			Name:  row.Name,
			Error: err,
			Time:  time.Now(),
		})
	}
}

func (m *Manager) statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sortedRows() []*TransferRow {
	rows := make([]*TransferRow, 0, len(m.rows))
	for _, row := range m.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	availableLines := getTerminalHeight() - 3
	if m.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}
	lineCount := 0
	for _, row := range m.sortedRows() {
		if lineCount >= availableLines {
			break
		}
		indicator := m.statusIndicator(row.Status)
		elapsed := time.Since(row.StartTime).Round(time.Second)
		switch row.Status {
		case "active":
			bar := ProgressBar(row.Downloaded, row.TotalSize, 30)
			detail := formatProgress(row.Downloaded, row.TotalSize, elapsed.Seconds())
			fmt.Printf("  %s %s %s%s\n", indicator, debugStyle.Render(elapsed.String()), bar, debugStyle.Render(detail))
		case "success":
			fmt.Printf("  %s %s %s\n", indicator, debugStyle.Render(elapsed.String()), successStyle.Render(row.Message))
		case "error":
			fmt.Printf("  %s %s %s\n", indicator, debugStyle.Render(elapsed.String()), errorStyle.Render(fmt.Sprintf("Failed %s", row.Name)))
		default:
			fmt.Printf("  %s %s\n", indicator, pendingStyle.Render("Waiting..."))
		}
		lineCount++
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	// the live table owns the terminal; drop log lines until it stops
	utils.SetLogOutput(io.Discard)
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
	utils.SetLogOutput(os.Stderr)
}

func (m *Manager) displayErrors() {
	if len(m.errors) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("  " + errorStyle.Bold(true).Render("Errors:"))
	for i, report := range m.errors {
		fmt.Printf("    %s %s %s\n",
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", report.Time.Format("15:04:05"))),
			errorStyle.Render(report.Name))
		fmt.Printf("      %s\n", errorStyle.Render(fmt.Sprintf("Error: %v", report.Error)))
	}
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Println()
	var success, failures int
	for _, row := range m.rows {
		if row.Status == "success" {
			success++
		} else if row.Status == "error" {
			failures++
		}
	}
	fmt.Println("  " + successStyle.Render(fmt.Sprintf("Completed %d of %d", success, len(m.rows))))
	if failures > 0 {
		fmt.Println("  " + errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.rows))))
	}
	m.displayErrors()
	fmt.Println()
}
