// Package server drives the command loop over one of three input
// sources — a TCP connection, an interactive line editor, or piped
// stdin — dispatching each line through a proto.Executor. Grounded on
// original_source's repl.c: one connection served at a time
// (accept-drive-until-close, then accept again), and a single dispatch
// target (stdout/stderr, or the socket) chosen once per session so a
// network client sees both its replies and its errors on the same
// connection.
package server

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/sarchlab/redpile/engine"
	"github.com/sarchlab/redpile/proto"
	"github.com/sarchlab/redpile/registry"
)

// RunSession drives commands read from in, one per line, against an
// Executor built over out/errOut, until in reaches EOF. A TICK aborted by
// a behavior-host error doesn't end the session — per-command isolation
// — it's just reported and the loop continues.
func RunSession(in io.Reader, out, errOut io.Writer, w *engine.World, reg *registry.Registry) {
	ex := proto.NewExecutor(w, reg, out, errOut)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, err := proto.Parse(line)
		if err != nil {
			fmt.Fprintf(errOut, "%s\n", err)
			continue
		}
		_ = ex.Execute(cmd) // tick-abort errors are already reported to errOut
	}
}

// ListenAndServe binds addr (e.g. "0.0.0.0:25565"), then serves one TCP
// client at a time forever: accept, drive RunSession on that connection
// until it closes, accept again. Both stdout and stderr for a session
// are the same socket, matching the reference's single repl_print_network
// dispatch for both streams.
func ListenAndServe(addr string, w *engine.World, reg *registry.Registry, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	defer ln.Close()

	log.Info("listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Warn("accept failed", "error", err)
			continue
		}
		func() {
			defer conn.Close()
			RunSession(conn, conn, conn, w, reg)
		}()
	}
}
