package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wordle/internal/client"
	"wordle/internal/models"
	"wordle/internal/wordle"
)

// GameAPI is the part of the API client the board needs
type GameAPI interface {
	CreateGame(ctx context.Context) (*client.Game, error)
	Guess(ctx context.Context, gameID int64, guess string) (*client.GuessResult, error)
}

// -- messages --

type gameCreatedMsg struct {
	game *client.Game
	err  error
}

type guessResultMsg struct {
	res *client.GuessResult
	err error
}

type copyResultMsg struct {
	err error
}

// -- model --

// Model is the interactive board
type Model struct {
	api      GameAPI
	copy     func(string) error
	game     *client.Game
	input    []rune
	keys     map[rune]models.LetterStatus
	pending  bool
	err      string
	note     string
	username string
}

var keyboardRows = []string{"QWERTYUIOP", "ASDFGHJKL", "ZXCVBNM"}

// statusRank orders statuses so the keyboard keeps the best one seen per letter
var statusRank = map[models.LetterStatus]int{
	models.LetterIncorrect: 1,
	models.LetterMisplaced: 2,
	models.LetterCorrect:   3,
}

// NewModel creates a board. username is shown in the header; empty means anonymous.
func NewModel(api GameAPI, username string) Model {
	return Model{
		api:      api,
		copy:     clipboard.WriteAll,
		keys:     make(map[rune]models.LetterStatus),
		username: username,
	}
}

func (m Model) Init() tea.Cmd {
	return m.newGame()
}

func (m Model) newGame() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		game, err := api.CreateGame(ctx)
		return gameCreatedMsg{game: game, err: err}
	}
}

func (m Model) submit(guess string) tea.Cmd {
	api := m.api
	gameID := m.game.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		res, err := api.Guess(ctx, gameID, guess)
		return guessResultMsg{res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case gameCreatedMsg:
		m.pending = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.game = msg.game
		m.input = nil
		m.keys = make(map[rune]models.LetterStatus)
		m.err = ""
		m.note = ""
		for _, a := range m.game.Attempts {
			m.markKeys(a.Guess, a.LetterStatuses)
		}

	case guessResultMsg:
		m.pending = false
		if msg.err != nil {
			m.err = errorText(msg.err)
			return m, nil
		}
		res := msg.res
		m.game.Attempts = append(m.game.Attempts, client.Attempt{Guess: res.Guess, LetterStatuses: res.LetterStatuses})
		m.game.CurrentTry = res.CurrentTry
		m.game.GameStatus = res.GameStatus
		if res.Word != "" {
			word := res.Word
			m.game.Word = &word
		}
		m.markKeys(res.Guess, res.LetterStatuses)
		m.input = nil
		m.err = ""

	case copyResultMsg:
		if msg.err != nil {
			m.err = "copy failed: " + msg.err.Error()
		} else {
			m.note = "Result copied to clipboard"
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlN:
		m.pending = true
		m.note = ""
		return m, m.newGame()
	case tea.KeyCtrlS:
		if m.game == nil || !m.game.GameStatus.IsFinished() {
			return m, nil
		}
		grid := ShareGrid(m.game)
		copyFn := m.copy
		return m, func() tea.Msg {
			return copyResultMsg{err: copyFn(grid)}
		}
	case tea.KeyBackspace:
		if m.acceptingInput() && len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	case tea.KeyEnter:
		if !m.acceptingInput() {
			return m, nil
		}
		if len(m.input) != wordle.WordLength {
			m.err = fmt.Sprintf("guess must be %d letters", wordle.WordLength)
			return m, nil
		}
		m.pending = true
		m.err = ""
		return m, m.submit(string(m.input))
	case tea.KeyRunes:
		if !m.acceptingInput() {
			return m, nil
		}
		for _, r := range msg.Runes {
			if !unicode.IsLetter(r) || len(m.input) >= wordle.WordLength {
				continue
			}
			m.input = append(m.input, unicode.ToUpper(r))
		}
		m.err = ""
	}
	return m, nil
}

func (m Model) acceptingInput() bool {
	return m.game != nil && !m.pending && !m.game.GameStatus.IsFinished()
}

func (m *Model) markKeys(guess string, statuses []models.LetterStatus) {
	for i, r := range []rune(guess) {
		if i >= len(statuses) {
			break
		}
		if statusRank[statuses[i]] > statusRank[m.keys[r]] {
			m.keys[r] = statuses[i]
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	title := "WORDLE"
	if m.username != "" {
		title += "  ·  " + m.username
	} else {
		title += "  ·  guest"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.game == nil {
		if m.err != "" {
			b.WriteString(errorStyle.Render(m.err) + "\n")
		} else {
			b.WriteString(hintStyle.Render("Starting a new game...") + "\n")
		}
		return b.String()
	}

	for row := 0; row < wordle.MaxTries; row++ {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, row := range keyboardRows {
		keys := make([]string, 0, len(row))
		for _, r := range row {
			keys = append(keys, keyStyle(m.keys[r]).Render(string(r)))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, keys...))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.game.GameStatus {
	case models.GameWon:
		b.WriteString(noteStyle.Render(fmt.Sprintf("Solved in %d/%d!", m.game.CurrentTry, wordle.MaxTries)) + "\n")
	case models.GameLost:
		word := ""
		if m.game.Word != nil {
			word = *m.game.Word
		}
		b.WriteString(errorStyle.Render("Out of tries. The word was "+word) + "\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err) + "\n")
	}
	if m.note != "" {
		b.WriteString(noteStyle.Render(m.note) + "\n")
	}
	b.WriteString(hintStyle.Render("enter submit · ctrl+n new game · ctrl+s share · esc quit"))
	return b.String()
}

func (m Model) renderRow(row int) string {
	tiles := make([]string, wordle.WordLength)
	switch {
	case row < len(m.game.Attempts):
		a := m.game.Attempts[row]
		letters := []rune(a.Guess)
		for i := range tiles {
			var status models.LetterStatus
			if i < len(a.LetterStatuses) {
				status = a.LetterStatuses[i]
			}
			letter := " "
			if i < len(letters) {
				letter = string(letters[i])
			}
			tiles[i] = tileStyle(status).Render(letter)
		}
	case row == len(m.game.Attempts) && !m.game.GameStatus.IsFinished():
		for i := range tiles {
			letter := "_"
			if i < len(m.input) {
				letter = string(m.input[i])
			}
			tiles[i] = tileStyle("").Render(letter)
		}
	default:
		for i := range tiles {
			tiles[i] = tileStyle("").Render("·")
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

// ShareGrid renders a finished game as the spoiler-free emoji grid
func ShareGrid(game *client.Game) string {
	score := "X"
	if game.GameStatus == models.GameWon {
		score = fmt.Sprint(game.CurrentTry)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Wordle #%d %s/%d\n\n", game.ID, score, wordle.MaxTries)
	for i, a := range game.Attempts {
		for _, s := range a.LetterStatuses {
			switch s {
			case models.LetterCorrect:
				b.WriteString("🟩")
			case models.LetterMisplaced:
				b.WriteString("🟨")
			default:
				b.WriteString("⬛")
			}
		}
		if i < len(game.Attempts)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func errorText(err error) string {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return err.Error()
}
