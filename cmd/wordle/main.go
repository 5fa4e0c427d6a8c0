package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wordle/internal/client"
	"wordle/internal/tui"
)

const defaultAPIURL = "http://localhost:8080"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// tokenFilePath returns ~/.wordle/token.
func tokenFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".wordle", "token"), nil
}

// readToken returns the auth token using precedence: env var > file > empty.
func readToken() string {
	if tok := os.Getenv("WORDLE_TOKEN"); tok != "" {
		return tok
	}
	path, err := tokenFilePath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) error {
	path, err := tokenFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func run(args []string) error {
	apiURL := os.Getenv("WORDLE_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	cmd := "play"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	c := client.New(apiURL, readToken())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "help", "--help", "-h":
		printHelp()
		return nil
	case "register":
		return runRegister(ctx, c, args, os.Stdin)
	case "login":
		return runLogin(ctx, c, args, os.Stdin)
	case "logout":
		return runLogout()
	case "play":
		return runPlay(c)
	case "top":
		return runTop(ctx, c, args, os.Stdout)
	case "rank":
		return runRank(ctx, c, args, os.Stdout)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runRegister(ctx context.Context, c *client.Client, args []string, stdin io.Reader) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "Username (3-32 letters, digits, '_', '.' or '-')")
	password := fs.String("password", "", "Password (prompted when empty)")
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "E-mail address (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := bufio.NewReader(stdin)
	if *username == "" {
		*username = prompt(in, "Username: ")
	}
	if *password == "" {
		*password = prompt(in, "Password: ")
	}
	if *first == "" {
		*first = prompt(in, "First name: ")
	}
	if *last == "" {
		*last = prompt(in, "Last name: ")
	}

	token, err := c.Register(ctx, client.RegisterRequest{
		Username:  *username,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
	})
	if err != nil {
		return err
	}
	if err := saveToken(token); err != nil {
		return err
	}
	fmt.Printf("Registered as %s.\n", *username)
	return nil
}

func runLogin(ctx context.Context, c *client.Client, args []string, stdin io.Reader) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "Username")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := bufio.NewReader(stdin)
	if *username == "" {
		*username = prompt(in, "Username: ")
	}
	if *password == "" {
		*password = prompt(in, "Password: ")
	}

	token, err := c.Authenticate(ctx, *username, *password)
	if client.IsStatus(err, 401) {
		return errors.New("invalid username or password")
	}
	if err != nil {
		return err
	}
	if err := saveToken(token); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", *username)
	return nil
}

func runLogout() error {
	path, err := tokenFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

func runPlay(c *client.Client) error {
	username := ""
	if c.Token() != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		profile, err := c.Profile(ctx)
		cancel()
		switch {
		case client.IsStatus(err, 401):
			fmt.Fprintln(os.Stderr, "Saved session expired, playing as guest. Run 'wordle login' to sign in again.")
			c.SetToken("")
		case err == nil:
			username = profile.Username
		}
	}

	p := tea.NewProgram(tui.NewModel(c, username), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runTop(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Number of players to show (default: server limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	board, err := c.Top(ctx, *limit)
	if err != nil {
		return err
	}
	if len(board) == 0 {
		fmt.Fprintln(out, "No players yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPLAYER\tWINS")
	rank, prevWins := 0, -1
	for i, entry := range board {
		if entry.Wins != prevWins {
			rank = i + 1
			prevWins = entry.Wins
		}
		fmt.Fprintf(w, "%d\t%s\t%d\n", rank, entry.Username, entry.Wins)
	}
	return w.Flush()
}

func runRank(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) > 0 {
		rank, err := c.Rank(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s is ranked #%d\n", args[0], rank)
		return nil
	}

	if c.Token() == "" {
		return errors.New("not signed in: run 'wordle login' or pass a username")
	}
	profile, err := c.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: #%d with %d wins and %d losses\n", profile.Username, profile.Rank, profile.Wins, profile.Losses)
	return nil
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func printHelp() {
	fmt.Println(`wordle - play Wordle in your terminal

Usage:
  wordle [play]           Start a game (signed-in games count towards your stats)
  wordle register         Create an account and sign in
  wordle login            Sign in
  wordle logout           Forget the saved session
  wordle top [-limit n]   Show the leaderboard
  wordle rank [username]  Show your rank or another player's

Environment:
  WORDLE_API_URL  Gateway address (default http://localhost:8080)
  WORDLE_TOKEN    Access token, overrides ~/.wordle/token`)
}
