package main

import (
	"fmt"
	"strings"

	"streamchat/internal/models"
	"streamchat/internal/streamapi"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	adminStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	pinnedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// renderHeader draws the stream title line with its status badge.
func renderHeader(snap streamapi.Snapshot) string {
	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color(snap.Status.DisplayColor)).
		Background(lipgloss.Color(snap.Status.BadgeColor)).
		Bold(true).
		Padding(0, 1).
		Render(string(snap.Status.Label))

	title := "Unknown stream"
	if snap.Stream != nil && snap.Stream.Title != "" {
		title = snap.Stream.Title
	}

	parts := []string{badge, titleStyle.Render(title)}
	if snap.StartsAt != "" {
		parts = append(parts, metaStyle.Render(snap.StartsAt))
	}
	if snap.Countdown != "" {
		parts = append(parts, metaStyle.Render("starts in "+snap.Countdown))
	}
	line := strings.Join(parts, " ")
	if snap.Err != nil {
		line += " " + errorStyle.Render("(stale: "+snap.Err.Error()+")")
	}
	return line
}

func renderMessage(m models.ChatMessage) string {
	name := nameStyle.Render(m.UserName)
	if m.IsAdmin {
		name = adminStyle.Render(m.UserName + " [admin]")
	}
	return fmt.Sprintf("%s %s %s %s",
		metaStyle.Render(m.Timestamp.Local().Format("15:04")),
		name,
		m.Message,
		metaStyle.Render("#"+m.ID))
}

func renderPinned(m *models.ChatMessage) string {
	if m == nil {
		return pinnedStyle.Render("pinned message removed")
	}
	return pinnedStyle.Render("pinned: " + m.UserName + ": " + m.Message)
}

func renderNotice(title, message string) string {
	return noticeStyle.Render(title + ": " + message)
}
