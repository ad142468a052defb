package color

import (
	"fmt"

	"github.com/muesli/termenv"
)

// ANSI color codes, resolved against the active profile
const (
	Red       = "1"
	Green     = "2"
	Yellow    = "3"
	Blue      = "4"
	Cyan      = "6"
	Gray      = "8"
	BrightRed = "9"
)

// profile detected from the environment; Ascii disables styling. NO_COLOR
// and non terminal outputs are handled by termenv.
var profile = termenv.EnvColorProfile()

func EnableColor(enable bool) {
	if enable {
		profile = termenv.EnvColorProfile()
		return
	}
	profile = termenv.Ascii
}

func colorEnabled() bool {
	return profile != termenv.Ascii
}

func Colorize(color, text string) string {
	return profile.String(text).Foreground(profile.Color(color)).String()
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func brightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func BlueText(text string) string {
	return Colorize(Blue, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

func BoldText(text string) string {
	return profile.String(text).Bold().String()
}

func Error(message string) string {
	return brightRedText("Error: ") + message
}

func Success(message string) string {
	return GreenText("Success: ") + message
}

func Position(line, col int) string {
	return CyanText(fmt.Sprintf("%d:%d", line, col))
}

func ErrorWithPosition(line, col int, message string) string {
	if !colorEnabled() {
		return fmt.Sprintf("Error at %d:%d: %s", line, col, message)
	}

	return fmt.Sprintf("%s at %s: %s",
		brightRedText(BoldText("Error")),
		Position(line, col),
		message)
}
