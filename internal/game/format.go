package game

import "fmt"

// FormatElapsed renders seconds as m:ss for the info bar.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
