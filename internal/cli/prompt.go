package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/game"
)

// PromptForTheme lists the theme catalog on out and reads a choice from in.
// A number picks a catalog entry, anything else is used as free text, and an
// empty line picks the first theme.
func PromptForTheme(in io.Reader, out io.Writer) string {
	themes := game.Themes()
	for i, t := range themes {
		fmt.Fprintf(out, "  %d) %s %s\n", i+1, t.Icon, t.Name)
	}
	fmt.Fprintf(out, "Theme [%s]: ", themes[0].Name)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Msg("Failed to read input, using the first theme")
		return themes[0].Name
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return themes[0].Name
	}
	var n int
	if _, err := fmt.Sscanf(input, "%d", &n); err == nil && fmt.Sprint(n) == input && n >= 1 && n <= len(themes) {
		return themes[n-1].Name
	}
	if t, ok := game.LookupTheme(input); ok {
		return t.Name
	}
	return input
}
