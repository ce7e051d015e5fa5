package colors

import "github.com/fatih/color"

var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
)

// Status colors an HTTP status code, red for errors & green otherwise
func Status(code int) string {
	if code >= 400 {
		return Red(code)
	}

	return Green(code)
}
