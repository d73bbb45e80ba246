package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"adforge/internal/jobs"
	"adforge/internal/tasks"
)

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// displayName renders an enum value for humans ("tiktok" stays branded,
// the rest get title casing).
func displayName(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "tiktok":
		return "TikTok"
	case "meta":
		return "Meta"
	case "veo":
		return "Veo"
	case "":
		return ""
	default:
		return cases.Title(language.Und).String(value)
	}
}

func formatStatus(status jobs.Status) string {
	return cases.Title(language.Und).String(string(status))
}

func formatProgress(task *tasks.Task) string {
	if task.Status.IsTerminal() {
		return formatStatus(task.Status)
	}
	label := formatStatus(task.Status)
	if task.ProgressPercent > 0 {
		label = fmt.Sprintf("%s %.0f%%", label, task.ProgressPercent)
	}
	if step := strings.TrimSpace(task.CurrentStep); step != "" {
		label = fmt.Sprintf("%s (%s)", label, step)
	}
	return label
}

func formatAge(created time.Time, now time.Time) string {
	age := now.Sub(created)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

// truncate shortens value to limit characters, cutting on rune boundaries.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-3]) + "..."
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
