package tui

import (
	"github.com/charmbracelet/lipgloss"

	"wordle/internal/models"
)

var (
	colorCorrect   = lipgloss.Color("#6AAA64")
	colorMisplaced = lipgloss.Color("#C9B458")
	colorIncorrect = lipgloss.Color("#3A3A3C")
	colorEmpty     = lipgloss.Color("#818384")
	colorText      = lipgloss.Color("#FFFFFF")
	colorError     = lipgloss.Color("#E5484D")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText).MarginBottom(1)
	hintStyle  = lipgloss.NewStyle().Foreground(colorEmpty)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	noteStyle  = lipgloss.NewStyle().Foreground(colorCorrect)

	tileBase = lipgloss.NewStyle().
			Width(3).
			Align(lipgloss.Center).
			Bold(true).
			Foreground(colorText).
			MarginRight(1)

	keyBase = lipgloss.NewStyle().
		Padding(0, 1).
		MarginRight(1).
		Foreground(colorText)
)

// tileStyle returns the board tile style for a letter status. An empty status is an unsubmitted tile.
func tileStyle(status models.LetterStatus) lipgloss.Style {
	switch status {
	case models.LetterCorrect:
		return tileBase.Background(colorCorrect)
	case models.LetterMisplaced:
		return tileBase.Background(colorMisplaced)
	case models.LetterIncorrect:
		return tileBase.Background(colorIncorrect)
	default:
		return tileBase.Background(lipgloss.NoColor{}).Foreground(colorEmpty)
	}
}

func keyStyle(status models.LetterStatus) lipgloss.Style {
	switch status {
	case models.LetterCorrect:
		return keyBase.Background(colorCorrect)
	case models.LetterMisplaced:
		return keyBase.Background(colorMisplaced)
	case models.LetterIncorrect:
		return keyBase.Background(colorIncorrect).Foreground(colorEmpty)
	default:
		return keyBase.Background(colorEmpty)
	}
}
