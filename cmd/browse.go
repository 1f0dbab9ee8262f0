// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tapeworks/tapecat/pkg/papertape"
	"github.com/tapeworks/tapecat/pkg/tapeimage"
)

var browseCmd = &cobra.Command{
	Use:   "browse [dir]",
	Short: "Browse captured tapes in a directory",
	Long: `Interactive browser for captured tape files.

Lists .bin, .rim, and .raw images plus .cbor transcripts in the given
directory (default: the configured output directory, else the current
one). Selecting a file shows its tapeimage summary and the head of the
record listing. 'esc' returns to the list, 'q' quits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

// tapeFile is one image or transcript in the browse directory
type tapeFile struct {
	name    string
	path    string
	size    int64
	modTime time.Time
}

// Implement list.Item interface
func (t tapeFile) Title() string { return t.name }
func (t tapeFile) Description() string {
	return fmt.Sprintf("%d bytes, %s", t.size, t.modTime.Format("2006-01-02 15:04"))
}
func (t tapeFile) FilterValue() string { return t.name }

// scanTapeDir lists the tape files in a directory
func scanTapeDir(dir string) ([]tapeFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", dir, err)
	}

	files := make([]tapeFile, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".bin", ".rim", ".raw", ".cbor":
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, tapeFile{
			name:    entry.Name(),
			path:    filepath.Join(dir, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files, nil
}

// describeTapeFile builds the detail pane for a selected file
func describeTapeFile(t tapeFile) string {
	switch strings.ToLower(filepath.Ext(t.path)) {
	case ".bin", ".rim":
		format := papertape.FormatBin
		if strings.ToLower(filepath.Ext(t.path)) == ".rim" {
			format = papertape.FormatRim
		}

		data, err := os.ReadFile(t.path)
		if err != nil {
			return fmt.Sprintf("Failed to read: %v", err)
		}
		records, summary, scanErr := tapeimage.ScanBytes(data, format)

		var s strings.Builder
		s.WriteString(tapeimage.FormatSummary(summary))
		if scanErr != nil {
			s.WriteString(fmt.Sprintf("\n%v\n", scanErr))
		}

		// Head of the listing; long tapes get elided
		const maxRecords = 16
		n := len(records)
		if n > maxRecords {
			n = maxRecords
		}
		if n > 0 {
			s.WriteString("\n")
			s.WriteString(tapeimage.FormatListing(records[:n]))
			if len(records) > maxRecords {
				s.WriteString(fmt.Sprintf("... (%d more records)\n", len(records)-maxRecords))
			}
		}
		return s.String()

	case ".cbor":
		f, err := os.Open(t.path)
		if err != nil {
			return fmt.Sprintf("Failed to read: %v", err)
		}
		defer f.Close()

		tr, err := papertape.OpenTranscript(f)
		if err != nil {
			return fmt.Sprintf("Not a tapecat transcript: %v", err)
		}
		header := tr.Header()

		chunks, idle, bytes := 0, 0, 0
		var lastOffset int64
		for {
			chunk, err := tr.Next()
			if err != nil {
				break
			}
			chunks++
			if chunk.Idle {
				idle++
			}
			bytes += len(chunk.Data)
			lastOffset = chunk.Offset
		}

		var s strings.Builder
		s.WriteString("Session transcript\n\n")
		s.WriteString(fmt.Sprintf("Recorded: %s\n", time.Unix(header.Started, 0).Format(time.RFC3339)))
		s.WriteString(fmt.Sprintf("Source:   %s\n", header.Source))
		s.WriteString(fmt.Sprintf("Format:   %s\n", header.Format))
		s.WriteString(fmt.Sprintf("Chunks:   %d (%d idle)\n", chunks, idle))
		s.WriteString(fmt.Sprintf("Data:     %d bytes over %.1f seconds\n", bytes, float64(lastOffset)/1000.0))
		s.WriteString("\nUse 'tapecat replay' to run it through the decoder.\n")
		return s.String()

	default:
		return fmt.Sprintf("%d bytes of raw data (no structure to inspect)", t.size)
	}
}

// browseModel is the Bubble Tea model for the tape browser
type browseModel struct {
	dir        string
	files      []tapeFile
	fileList   list.Model
	detailName string
	detail     string
	width      int
	height     int
	quitting   bool
}

func initialBrowseModel(dir string, files []tapeFile) browseModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)

	items := make([]list.Item, len(files))
	for i, f := range files {
		items[i] = f
	}

	fileList := list.New(items, delegate, 60, 20)
	fileList.Title = fmt.Sprintf("Tapes in %s", dir)
	fileList.SetShowStatusBar(false)
	fileList.SetShowHelp(false)
	fileList.SetFilteringEnabled(false)

	return browseModel{
		dir:      dir,
		files:    files,
		fileList: fileList,
		width:    80,
		height:   24,
	}
}

func (m browseModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "esc":
			m.detail = ""
			m.detailName = ""
			return m, nil

		case "enter":
			if m.detail == "" {
				idx := m.fileList.Index()
				if idx >= 0 && idx < len(m.files) {
					m.detailName = m.files[idx].name
					m.detail = describeTapeFile(m.files[idx])
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - 6
		if listHeight < 5 {
			listHeight = 5
		}
		m.fileList.SetSize(m.width-6, listHeight)
	}

	// Pass through to the list when it has focus
	if m.detail == "" {
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m browseModel) View() string {
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

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("TAPECAT - TAPE BROWSER"))
	s.WriteString("\n")

	if m.detail == "" {
		s.WriteString(headerStyle.Render("enter=inspect | q=quit"))
		s.WriteString("\n\n")
		s.WriteString(boxStyle.Render(m.fileList.View()))
	} else {
		s.WriteString(headerStyle.Render(fmt.Sprintf("%s | esc=back | q=quit", m.detailName)))
		s.WriteString("\n\n")
		s.WriteString(boxStyle.Width(m.width - 4).Render(m.detail))
	}

	return s.String()
}

func runBrowse(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	} else if config.OutputDir != "" {
		dir = config.OutputDir
	}

	files, err := scanTapeDir(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tape files in %s", dir)
	}

	m := initialBrowseModel(dir, files)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
