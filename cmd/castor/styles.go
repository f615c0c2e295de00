// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"castor-cli/internal/descriptor"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by every command, tuned for dark terminals.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for task names and other things the user can type.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	// kindStyles colors the KIND column of `castor list`.
	kindStyles = map[descriptor.Kind]lipgloss.Style{
		descriptor.KindTask:             CmdStyle,
		descriptor.KindSymfonyTask:      CmdStyle,
		descriptor.KindContext:          SuccessStyle,
		descriptor.KindContextGenerator: SuccessStyle,
		descriptor.KindListener:         WarningStyle,
	}
)
