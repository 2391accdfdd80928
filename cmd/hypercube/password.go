package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/hcerr"
	"github.com/codeology-limited/hypercube/internal/kdf"
)

// readPasswordSecure prompts on stderr and reads a secret from stdin
// without echoing it to the terminal, falling back to a plain line read
// when stdin isn't a TTY (piped input, scripts).
func readPasswordSecure(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !term.IsTerminal(int(syscall.Stdin)) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(pw), nil
}

// resolveSecret returns flagValue if set, otherwise prompts interactively.
func resolveSecret(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return readPasswordSecure("Secret: ")
}

// hardenSecret turns a raw passphrase into the byte secret handed to
// partition.Create/Recover. kdfVariant of "none" passes the passphrase
// through unchanged; any other value runs it through kdf.DeriveSecret,
// salted from h's public fields, before it ever reaches the MAC layer.
func hardenSecret(passphrase string, h *cube.Header, kdfVariant string) ([]byte, error) {
	switch kdf.Variant(kdfVariant) {
	case "none", "":
		return []byte(passphrase), nil
	case kdf.VariantArgon2id, kdf.VariantScrypt:
		return kdf.DeriveSecret([]byte(passphrase), h, kdf.Variant(kdfVariant))
	default:
		return nil, hcerr.New(hcerr.Format, "kdf must be none, argon2id, or scrypt")
	}
}
