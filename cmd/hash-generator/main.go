// Command hash-generator prints a bcrypt hash for seeding user rows by hand.
//
//	hash-generator -cost 12 -password 'secret'
//
// Without -password it prompts on the terminal with echo disabled.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/renal-ai-api/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	password := flag.String("password", "", "password to hash (prompted for when empty)")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if err := run(*password, *cost, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "hash-generator:", err)
		os.Exit(1)
	}
}

// run writes the hash of password, or of a password read from in, to out.
func run(password string, cost int, in *os.File, out io.Writer) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if password == "" {
		var err error
		password, err = readPassword(in)
		if err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("empty password")
	}

	hash, err := auth.NewBcrypt(cost).Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// readPassword prompts on a terminal, or reads one line from piped stdin.
func readPassword(in *os.File) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
