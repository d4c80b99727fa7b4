package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed, color.Bold)
	cyan  = color.New(color.FgCyan)
)

func printError(w io.Writer, err error) {
	red.Fprintf(w, "Error: %v\n", err)
}

func printHeader(w io.Writer, format string, a ...any) {
	cyan.Fprintf(w, format+"\n", a...)
}

func printFree(w io.Writer, format string, a ...any) {
	green.Fprintf(w, format+"\n", a...)
}

func printBusy(w io.Writer, format string, a ...any) {
	red.Fprintf(w, format+"\n", a...)
}

func printPlain(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, format+"\n", a...)
}
