package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tanq16/hauler/internal/utils"
)

// ProgressBar renders a fixed-width bar for current/total bytes.
func ProgressBar(current, total int64, width int) string {
	if width <= 0 {
		width = 30
	}
	if total <= 0 {
		total = 1
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}
	percent := float64(current) / float64(total)
	filled := max(0, min(int(percent*float64(width)), width))
	bar := StyleSymbols["bullet"]
	bar += strings.Repeat(StyleSymbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += StyleSymbols["bullet"]
	return debugStyle.Render(fmt.Sprintf("%s %.1f%% %s ", bar, percent*100, StyleSymbols["bullet"]))
}

func formatProgress(downloaded, total int64, elapsed float64) string {
	if total > 0 {
		return fmt.Sprintf("%s / %s %s %s",
			utils.FormatBytes(uint64(downloaded)),
			utils.FormatBytes(uint64(total)),
			StyleSymbols["bullet"],
			utils.FormatSpeed(downloaded, elapsed))
	}
	return fmt.Sprintf("%s %s %s",
		utils.FormatBytes(uint64(downloaded)),
		StyleSymbols["bullet"],
		utils.FormatSpeed(downloaded, elapsed))
}

func getTerminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24 // Default fallback height
	}
	return height
}
