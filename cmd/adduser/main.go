// Command adduser creates an account in the accounting database without
// going through the web registration form.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"accounting/internal/auth"
	"accounting/internal/config"
	"accounting/internal/models"
	"accounting/internal/storage"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	username string
	password string
	dbPath   string
}

func parseOptions(args []string, stdout, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.username, "user", "", "Username")
	fs.StringVar(&opts.password, "password", "", "Password (optional, will prompt if omitted)")
	// DB_PATH, from the environment or .env, is the default.
	fs.StringVar(&opts.dbPath, "db", config.Load().DBPath, "Path to database file")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return opts, fmt.Errorf("missing required flags: user")
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, stdout, stderr)
	if err != nil {
		return err
	}

	if opts.password == "" {
		p := newPrompter(stdin, stdout)
		if opts.password, err = p.password("Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if strings.TrimSpace(opts.password) == "" {
			return fmt.Errorf("password cannot be empty")
		}
		confirm, err := p.password("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if confirm != opts.password {
			return fmt.Errorf("passwords do not match")
		}
	}
	if strings.TrimSpace(opts.password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	db, err := storage.NewDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	user, err := auth.NewCredentials(db).Register(context.Background(), opts.username, opts.password)
	switch {
	case errors.Is(err, models.ErrUsernameTaken):
		return fmt.Errorf("user %s already exists", strings.TrimSpace(opts.username))
	case errors.Is(err, models.ErrValidationFailed):
		return fmt.Errorf("invalid user: %w", err)
	case err != nil:
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

// prompter reads passwords without echo from a terminal, or line by line
// from any other reader.
type prompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, scanner: bufio.NewScanner(in)}
}

func (p *prompter) password(label string) (string, error) {
	fmt.Fprint(p.out, label)
	defer fmt.Fprintln(p.out)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
