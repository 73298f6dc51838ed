// Package devtools starts companion tools alongside the dev server. Launches
// are fire-and-forget: failures are logged and never reach the caller.
package devtools

import (
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Launcher spawns commands through the shell with the terminal's stdio.
type Launcher struct {
	Shell  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// OnExit, when set, receives the result of every launched command after it exits
	// or fails to start.
	OnExit func(command string, err error)
}

// NewLauncher returns a launcher wired to the current process's terminal.
func NewLauncher() *Launcher {
	return &Launcher{
		Shell:  "/bin/sh",
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Launch starts command and returns immediately. An empty command is a no-op.
func (l *Launcher) Launch(command string) {
	if command == "" {
		return
	}

	cmd := exec.Command(l.Shell, "-c", command) // #nosec G204 - command comes from the build settings
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("command", command).Msg("Failed to start dev tool, continuing without it")
		l.exited(command, err)
		return
	}

	log.Info().Str("command", command).Int("pid", cmd.Process.Pid).Msg("Started dev tool")

	go func() {
		err := cmd.Wait()
		if err != nil {
			log.Warn().Err(err).Str("command", command).Msg("Dev tool exited")
		} else {
			log.Debug().Str("command", command).Msg("Dev tool exited")
		}
		l.exited(command, err)
	}()
}

func (l *Launcher) exited(command string, err error) {
	if l.OnExit != nil {
		l.OnExit(command, err)
	}
}
