package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/sarchlab/redpile/engine"
	"github.com/sarchlab/redpile/proto"
	"github.com/sarchlab/redpile/registry"
)

// RunInteractive drives a history-backed "> " prompt against stdout/
// stderr, reading one line at a time until the user sends EOF (Ctrl-D),
// grounded on repl_read_linenoise's line-editor prompt loop.
func RunInteractive(out, errOut io.Writer, w *engine.World, reg *registry.Registry) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	ex := proto.NewExecutor(w, reg, out, errOut)
	for {
		input, err := line.Prompt("> ")
		if err != nil {
			return // EOF or Ctrl-C
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		cmd, err := proto.Parse(input)
		if err != nil {
			fmt.Fprintf(errOut, "%s\n", err)
			continue
		}
		_ = ex.Execute(cmd)
	}
}
