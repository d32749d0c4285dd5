package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the cardflow ASCII art banner.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`                     _  __ _               `, "#818cf8"},
		{`  ___ __ _ _ __ __| |/ _| | _____      __`, "#a78bfa"},
		{` / __/ _' | '__/ _' | |_| |/ _ \ \ /\ / /`, "#c084fc"},
		{`| (_| (_| | | | (_| |  _| | (_) \ V  V / `, "#e879f9"},
		{` \___\__,_|_|  \__,_|_| |_|\___/ \_/\_/  `, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
