package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/botchat/internal/theme"
)

// Layout constants
const (
	// Textarea
	MinTextareaHeight    = 3
	MaxTextareaHeight    = 12
	DefaultTextareaWidth = 80
	TextAreaPaddingLeft  = 1

	// Viewport
	MinViewportHeight = 1

	// Chat list
	ChatListWidth = 34

	// Messages
	MessagePaddingLeft  = 2
	BlockIndicatorWidth = 2
	BlockIndicator      = "▌ "

	// Confirmation dialog
	ConfirmPaddingHorizontal = 2
	ConfirmPaddingVertical   = 1

	// Help
	HelpMarginTop = 0
)

// Palette is the set of colors a theme is drawn with.
type Palette struct {
	Primary           lipgloss.Color
	Secondary         lipgloss.Color
	Accent            lipgloss.Color
	Success           lipgloss.Color
	Error             lipgloss.Color
	Muted             lipgloss.Color
	Text              lipgloss.Color
	TitleText         lipgloss.Color
	DimText           lipgloss.Color
	Border            lipgloss.Color
	Divider           lipgloss.Color
	Selected          lipgloss.Color
	SelectedText      lipgloss.Color
	MessageUnselected lipgloss.Color
}

var (
	// DarkPalette is the default palette.
	DarkPalette = Palette{
		Primary:           lipgloss.Color("#7C3AED"), // Purple
		Secondary:         lipgloss.Color("#06B6D4"), // Cyan
		Accent:            lipgloss.Color("#F59E0B"), // Amber
		Success:           lipgloss.Color("#10B981"), // Green
		Error:             lipgloss.Color("#EF4444"), // Red
		Muted:             lipgloss.Color("#6B7280"), // Gray
		Text:              lipgloss.Color("#F9FAFB"),
		TitleText:         lipgloss.Color("#F9FAFB"),
		DimText:           lipgloss.Color("#9CA3AF"),
		Border:            lipgloss.Color("#4B5563"),
		Divider:           lipgloss.Color("#374151"),
		Selected:          lipgloss.Color("#374151"),
		SelectedText:      lipgloss.Color("#F9FAFB"),
		MessageUnselected: lipgloss.Color("#9CA3AF"),
	}

	// LightPalette is used on light terminals.
	LightPalette = Palette{
		Primary:           lipgloss.Color("#6D28D9"),
		Secondary:         lipgloss.Color("#0E7490"),
		Accent:            lipgloss.Color("#B45309"),
		Success:           lipgloss.Color("#047857"),
		Error:             lipgloss.Color("#B91C1C"),
		Muted:             lipgloss.Color("#6B7280"),
		Text:              lipgloss.Color("#111827"),
		TitleText:         lipgloss.Color("#FFFFFF"),
		DimText:           lipgloss.Color("#4B5563"),
		Border:            lipgloss.Color("#D1D5DB"),
		Divider:           lipgloss.Color("#E5E7EB"),
		Selected:          lipgloss.Color("#E5E7EB"),
		SelectedText:      lipgloss.Color("#111827"),
		MessageUnselected: lipgloss.Color("#D1D5DB"),
	}
)

// Styles holds every style of the chat UI for one theme.
type Styles struct {
	Theme   theme.Theme
	Palette Palette

	// Header
	Title  lipgloss.Style
	Avatar lipgloss.Style
	Status lipgloss.Style

	// Chat list
	ChatList         lipgloss.Style
	ChatListFocused  lipgloss.Style
	ChatListHeader   lipgloss.Style
	ChatItem         lipgloss.Style
	ChatItemSelected lipgloss.Style
	ChatItemOpen     lipgloss.Style
	ChatDate         lipgloss.Style
	ChatPreview      lipgloss.Style

	// Messages
	UserMessage    lipgloss.Style
	BotMessage     lipgloss.Style
	UserLabel      lipgloss.Style
	BotLabel       lipgloss.Style
	Timestamp      lipgloss.Style
	BlockIndicator lipgloss.Style
	EmptyState     lipgloss.Style
	DimText        lipgloss.Style

	// Status lines
	Error   lipgloss.Style
	Warning lipgloss.Style
	Banner  lipgloss.Style

	// Input
	TextArea lipgloss.Style
	Spinner  lipgloss.Style
	Help     lipgloss.Style

	// Confirmation dialog
	ConfirmBox   lipgloss.Style
	ConfirmTitle lipgloss.Style

	Viewport lipgloss.Style
	Divider  lipgloss.Style
}

// New returns the styles of a theme.
func New(t theme.Theme) *Styles {
	p := DarkPalette
	if !t.IsDark() {
		p = LightPalette
	}

	s := &Styles{Theme: t, Palette: p}

	s.Title = lipgloss.NewStyle().
		Background(p.Primary).
		Foreground(p.TitleText).
		Bold(true)
	s.Avatar = lipgloss.NewStyle().
		Background(p.Secondary).
		Foreground(p.TitleText).
		Bold(true).
		Padding(0, 1)
	s.Status = lipgloss.NewStyle().
		Background(p.Primary).
		Foreground(p.TitleText)

	chatList := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(p.Border).
		PaddingRight(1)
	s.ChatList = chatList
	s.ChatListFocused = chatList.BorderForeground(p.Primary)
	s.ChatListHeader = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		MarginBottom(1)
	s.ChatItem = lipgloss.NewStyle().
		Foreground(p.Text).
		PaddingLeft(1)
	s.ChatItemSelected = s.ChatItem.
		Background(p.Selected).
		Foreground(p.SelectedText)
	s.ChatItemOpen = s.ChatItem.
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(0)
	s.ChatDate = lipgloss.NewStyle().Foreground(p.DimText)
	s.ChatPreview = lipgloss.NewStyle().Foreground(p.DimText)

	message := lipgloss.NewStyle().
		Foreground(p.Text).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())
	s.UserMessage = message.
		BorderForeground(p.Primary).
		MarginLeft(10)
	s.BotMessage = message.
		BorderForeground(p.Secondary).
		MarginRight(10)
	s.UserLabel = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
	s.BotLabel = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)
	s.Timestamp = lipgloss.NewStyle().Foreground(p.DimText)
	s.BlockIndicator = lipgloss.NewStyle().Foreground(p.Success)
	s.EmptyState = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true).
		Padding(1, 2)
	s.DimText = lipgloss.NewStyle().Foreground(p.DimText)

	s.Error = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)
	s.Warning = lipgloss.NewStyle().
		Foreground(p.Accent).
		Italic(true)
	s.Banner = lipgloss.NewStyle().
		Foreground(p.Error).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Error).
		Padding(0, 1)

	s.TextArea = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		PaddingLeft(TextAreaPaddingLeft)
	s.Spinner = lipgloss.NewStyle().Foreground(p.Secondary)
	s.Help = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true).
		MarginTop(HelpMarginTop)

	s.ConfirmBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(ConfirmPaddingVertical, ConfirmPaddingHorizontal)
	s.ConfirmTitle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)

	s.Viewport = lipgloss.NewStyle().Margin(0).Padding(0)
	s.Divider = lipgloss.NewStyle().Foreground(p.Divider)
	return s
}

// MessageHorizontalFrameSize returns the horizontal frame size of bot messages.
func (s *Styles) MessageHorizontalFrameSize() int {
	return s.BotMessage.GetHorizontalFrameSize()
}

// MessageSelected returns the message style with its border highlighted.
func (s *Styles) MessageSelected(style lipgloss.Style) lipgloss.Style {
	return style.BorderForeground(s.Palette.Success)
}

// MessageDimmed returns the message style with its border dimmed, used while another message is selected.
func (s *Styles) MessageDimmed(style lipgloss.Style) lipgloss.Style {
	return style.BorderForeground(s.Palette.MessageUnselected)
}

// Line creates a horizontal divider of the specified width.
func (s *Styles) Line(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
