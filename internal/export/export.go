// Package export writes an entry list as JSON, CSV or a Markdown report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"deepboot/internal/startup"
)

// Format is an output format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// Formats lists every supported format.
func Formats() []Format { return []Format{JSON, CSV, Markdown} }

// ParseFormat accepts a format name or its file extension.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected json, csv or markdown)", raw)
	}
}

// Ext is the file extension, without the dot.
func (f Format) Ext() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

var now = time.Now

// Write renders entries to w.
func Write(w io.Writer, format Format, entries []startup.Entry) error {
	switch format {
	case JSON:
		return writeJSON(w, entries)
	case CSV:
		return writeCSV(w, entries)
	case Markdown:
		return writeMarkdown(w, entries, now())
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// ToFile writes entries into dir as deepboot_export_<timestamp>.<ext> and
// returns the path. An empty dir means the working directory.
func ToFile(dir string, format Format, entries []startup.Entry) (string, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return "", err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create export dir: %w", err)
		}
	}
	name := fmt.Sprintf("deepboot_export_%s.%s", now().Format("20060102_150405"), format.Ext())
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, format, entries); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(w io.Writer, entries []startup.Entry) error {
	if entries == nil {
		entries = []startup.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeCSV(w io.Writer, entries []startup.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Command", "Source", "Enabled", "Description"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{e.Name, e.Command, e.Source.Label(), strconv.FormatBool(e.Enabled), e.Description}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func writeMarkdown(w io.Writer, entries []startup.Entry, generated time.Time) error {
	var b strings.Builder
	b.WriteString("# DeepBoot Scan Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total Entries: %d\n\n", len(entries))
	b.WriteString("## Startup Entries\n\n")
	b.WriteString("| Name | Command | Source | Enabled | Description |\n")
	b.WriteString("|------|---------|--------|---------|-------------|\n")
	for _, e := range entries {
		enabled := "No"
		if e.Enabled {
			enabled = "Yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cellEscaper.Replace(e.Name),
			cellEscaper.Replace(e.Command),
			e.Source.Label(),
			enabled,
			cellEscaper.Replace(e.Description))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
