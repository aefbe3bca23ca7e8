package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Terminal seams. Tests replace them to avoid touching a real TTY.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// ErrInputClosed is returned when the input stream ends before an answer.
var ErrInputClosed = errors.New("input closed")

// readLine reads one line and trims surrounding space.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := readRaw(reader)
	return strings.TrimSpace(line), err
}

// readRaw reads one line without its line ending. A final line without a
// newline is returned as is; EOF with nothing read is ErrInputClosed.
func readRaw(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// GetSimpleText prints a prompt to w and reads a single line of input.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	return readLine(reader)
}

// GetRequiredText repeats the prompt until a non-empty answer is given.
func GetRequiredText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	for {
		text, err := GetSimpleText(reader, prompt, w)
		if err != nil {
			return "", err
		}
		if text != "" {
			return text, nil
		}
		fmt.Fprintln(w, "A value is required.")
	}
}

// GetInt reads a whole number. An empty answer returns def.
func GetInt(reader *bufio.Reader, prompt string, def int, w io.Writer) (int, error) {
	for {
		text, err := GetSimpleText(reader, fmt.Sprintf("%s [%d]", prompt, def), w)
		if err != nil {
			return 0, err
		}
		if text == "" {
			return def, nil
		}
		n, err := strconv.Atoi(text)
		if err == nil {
			return n, nil
		}
		fmt.Fprintf(w, "%q is not a whole number.\n", text)
	}
}

// GetPassword prints prompt to w and reads a password. On a terminal the
// input is not echoed; otherwise a plain line is read from reader.
func GetPassword(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return readRaw(reader)
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
