// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational events
}

// TUI model
type monitorModel struct {
	connInfo      string
	format        papertape.Format
	output        string
	decoder       *papertape.Decoder
	stats         *papertape.Statistics
	image         []byte
	sessions      int
	eventLog      []eventLogEntry
	maxLogEntries int
	lastVerdict   *papertape.Verdict
	connClosed    bool
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type chunkMsg struct {
	data []byte
	idle bool
}
type connClosedMsg struct {
	err error
}

// formatUptime formats uptime in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	parts := []string{}
	if days > 0 {
		if days == 1 {
			parts = append(parts, "1 day")
		} else {
			parts = append(parts, fmt.Sprintf("%d days", days))
		}
	}
	if hours > 0 {
		if hours == 1 {
			parts = append(parts, "1 hour")
		} else {
			parts = append(parts, fmt.Sprintf("%d hours", hours))
		}
	}
	if minutes > 0 {
		if minutes == 1 {
			parts = append(parts, "1 minute")
		} else {
			parts = append(parts, fmt.Sprintf("%d minutes", minutes))
		}
	}
	if seconds > 0 || len(parts) == 0 {
		if seconds == 1 {
			parts = append(parts, "1 second")
		} else {
			parts = append(parts, fmt.Sprintf("%d seconds", seconds))
		}
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialMonitorModel(connInfo string, format papertape.Format, output string, decoder *papertape.Decoder) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		format:        format,
		output:        output,
		decoder:       decoder,
		stats:         papertape.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.decoder.State() != papertape.StateStart {
				m.finishSession("interrupted")
			}
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, tickCmd()

	case chunkMsg:
		if msg.idle {
			m.stats.RecordIdle()
			if m.decoder.State() != papertape.StateStart {
				m.finishSession("idle line")
			}
			return m, nil
		}

		stateBefore := m.decoder.State()
		emitted := 0
		for _, b := range msg.data {
			out, verdict := m.decoder.DecodeByte(b)
			m.image = append(m.image, out...)
			emitted += len(out)
			if verdict != nil {
				m.lastVerdict = verdict
				m.stats.RecordVerdict(verdict)
				m.addLogEntry(verdict.String(), !verdict.OK)
			}
		}
		m.stats.Update(len(msg.data), emitted)

		if stateBefore == papertape.StateStart && m.decoder.State() != papertape.StateStart {
			m.addLogEntry("Tape detected", false)
		}
		if m.decoder.Done() {
			m.finishSession("trailer")
		}

	case connClosedMsg:
		if msg.err == ErrConnectionClosed {
			m.addLogEntry("Connection closed", false)
		} else {
			m.addLogEntry(fmt.Sprintf("Read error: %v", msg.err), true)
		}
		if m.decoder.State() != papertape.StateStart {
			m.finishSession("connection closed")
		}
		m.connClosed = true
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// finishSession closes out the tape in progress: the image goes to the
// output file when one is configured, and the decoder resets for the
// next tape on the line.
func (m *monitorModel) finishSession(reason string) {
	if len(m.image) > 0 {
		if m.output != "" {
			path := sessionPath(m.output, m.sessions+1)
			if err := os.WriteFile(path, m.image, 0644); err != nil {
				m.addLogEntry(fmt.Sprintf("Write failed: %v", err), true)
			} else {
				m.addLogEntry(fmt.Sprintf("Wrote %d bytes to %s (%s)", len(m.image), path, reason), false)
			}
		} else {
			m.addLogEntry(fmt.Sprintf("Tape ended after %d bytes (%s)", len(m.image), reason), false)
		}
		m.sessions++
	}
	m.image = nil
	m.lastVerdict = nil
	m.decoder.Reset()
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("TAPECAT - TAPE MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Format: %s | Press 'q' to quit",
		m.connInfo, m.format)))
	s.WriteString("\n\n")

	// Line status
	if m.connClosed {
		s.WriteString(errorStyle.Render("✗ Connection closed"))
		s.WriteString("\n\n")
	} else if m.decoder.State() == papertape.StateStart {
		s.WriteString(warningStyle.Render("⏳ Waiting for tape..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(statsValueStyle.Render("✓ Reading tape"))
		s.WriteString(headerStyle.Render(fmt.Sprintf(" (%d bytes so far)", len(m.image))))
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("State:"), statsValueStyle.Render(m.decoder.State().String()),
		statsLabelStyle.Render("Lead-in:"), statsValueStyle.Render(fmt.Sprintf("%d", m.decoder.LeadInCount())),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Read:"), statsValueStyle.Render(fmt.Sprintf("%d bytes (%.1f B/s)", m.stats.BytesRead, m.stats.ByteRate)),
		statsLabelStyle.Render("Emitted:"), statsValueStyle.Render(fmt.Sprintf("%d bytes (%.1f B/s)", m.stats.BytesEmitted, m.stats.EmitRate)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Polls:"), statsValueStyle.Render(fmt.Sprintf("%d (%d idle)", m.stats.Polls, m.stats.IdlePolls)),
		statsLabelStyle.Render("Tapes:"), statsValueStyle.Render(fmt.Sprintf("%d", m.sessions)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s / %s",
		statsLabelStyle.Render("Checksums:"),
		statsValueStyle.Render(fmt.Sprintf("%d OK", m.stats.ChecksumOK)),
		func() string {
			if m.stats.ChecksumFail > 0 {
				return errorStyle.Render(fmt.Sprintf("%d FAIL", m.stats.ChecksumFail))
			}
			return statsValueStyle.Render("0 FAIL")
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Last verdict for the tape in progress
	if m.lastVerdict != nil {
		if m.lastVerdict.OK {
			s.WriteString(statsValueStyle.Render("✓ " + m.lastVerdict.String()))
		} else {
			s.WriteString(errorStyle.Render("✗ " + m.lastVerdict.String()))
		}
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 15 // Reserve space for header and stats
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))
	s.WriteString("\n")

	// Uptime footer
	uptime := uint64(time.Since(m.stats.StartTime).Milliseconds())
	s.WriteString(headerStyle.Render(fmt.Sprintf("Monitoring for %s", formatUptime(uptime))))

	return s.String()
}
