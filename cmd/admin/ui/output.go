package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// Field is one labelled line of a report
type Field struct {
	Label string
	Value string
}

// PrintReport prints a title followed by aligned fields. Empty values render as a dash.
func PrintReport(title string, fields []Field) {
	fmt.Println(titleStyle.Render(title))
	for _, f := range fields {
		value := f.Value
		if strings.TrimSpace(value) == "" {
			value = subtleStyle.Render("-")
		}
		fmt.Println("  " + labelStyle.Render(f.Label) + value)
	}
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// PrintError prints an error message
func PrintError(msg string) {
	fmt.Println(errorStyle.Render("Error: " + msg))
}

// Confirm asks a yes/no question and reports the answer
func Confirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}
