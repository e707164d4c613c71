package review

import (
	"bufio"
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsInteractive checks if stdin is a TTY, indicating that the user can
// answer review prompts. Returns false in CI environments or when input is
// piped, in which case the reviewer falls back to line-buffered input.
func IsInteractive() bool {
	return IsTTY(os.Stdin.Fd())
}

// IsOutputTerminal checks if stdout is a TTY. Match highlighting is only
// enabled when output goes directly to a terminal.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}

// readRawKey reads a single keystroke with the terminal in raw mode, so the
// human does not have to press enter after each choice. The terminal state is
// restored before returning.
func readRawKey(in *bufio.Reader) (byte, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not a terminal after all; fall back to a buffered read.
		return in.ReadByte()
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	return in.ReadByte()
}
