package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

const (
	defaultCols    = 110
	defaultRows    = 32
	defaultTimeout = 10 * time.Second
)

// Keystroke is one scripted input replayed against the pseudo terminal. A
// zero Delay writes immediately.
type Keystroke struct {
	Delay time.Duration
	Input []byte
}

// Script configures how the harness spawns and drives the client binary.
type Script struct {
	Command        []string
	Dir            string
	Env            []string
	Cols           int
	Rows           int
	Steps          []Keystroke
	Timeout        time.Duration
	AllowInterrupt bool
}

// Transcript holds everything the program wrote to the terminal.
type Transcript struct {
	Raw    []byte
	Frames []Frame
}

// Run executes the scripted session inside a PTY and captures the output.
func Run(ctx context.Context, script Script) (*Transcript, error) {
	if len(script.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	cols, rows := script.Cols, script.Rows
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}
	timeout := script.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script.Command[0], script.Command[1:]...)
	cmd.Dir = script.Dir
	cmd.Env = buildEnv(script.Env)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	var output bytes.Buffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		answerTerminalQueries(ptmx, &output)
	}()

	for _, step := range script.Steps {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tuitest: script interrupted: %w", ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if len(step.Input) > 0 {
			if _, err := ptmx.Write(step.Input); err != nil {
				return nil, fmt.Errorf("tuitest: write input: %w", err)
			}
		}
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil {
			interrupted := script.AllowInterrupt && strings.Contains(err.Error(), "signal: interrupt")
			if !interrupted {
				return nil, fmt.Errorf("tuitest: program exited with error: %w", err)
			}
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("tuitest: timeout waiting for program exit: %w", ctx.Err())
	}

	_ = ptmx.Close()
	<-drained

	raw := output.Bytes()
	return &Transcript{Raw: raw, Frames: parseFrames(raw)}, nil
}

// answerTerminalQueries copies PTY output into sink while replying to the
// cursor-position and color queries Bubble Tea issues on startup; without the
// replies the program blocks waiting for the "terminal".
func answerTerminalQueries(ptmx *os.File, sink io.Writer) {
	queries := []struct{ pattern, reply []byte }{
		{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
		{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
		{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
		{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
		{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
	}

	var tail []byte
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			_, _ = sink.Write(chunk)
			tail = append(tail, chunk...)
			for {
				answered := false
				for _, q := range queries {
					if idx := bytes.Index(tail, q.pattern); idx >= 0 {
						tail = tail[idx+len(q.pattern):]
						_, _ = ptmx.Write(q.reply)
						answered = true
					}
				}
				if !answered {
					break
				}
			}
			if len(tail) > 256 {
				tail = tail[len(tail)-64:]
			}
		}
		if err != nil {
			return
		}
	}
}

func buildEnv(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}

var (
	// KeyEnter sends a carriage return to the PTY.
	KeyEnter = []byte{'\r'}
	// KeyCtrlC requests the program to terminate.
	KeyCtrlC = []byte{3}
)
