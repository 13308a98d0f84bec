// package formatter provides functions to export categorized results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/samber/lo"
)

// ExportToCSV converts a CategorizedResult to CSV format with columns: Genre, ID, Title, Artists, Album, Popularity.
// A track carrying several genres produces one row per bucket it appears in.
func ExportToCSV(result *models.CategorizedResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Genre", "ID", "Title", "Artists", "Album", "Popularity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, bucket := range result.Buckets {
		for _, track := range bucket.Tracks {
			record := []string{
				bucket.Genre,
				track.ID,
				track.Name,
				artistNames(track),
				track.Album,
				strconv.Itoa(track.Popularity),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a CategorizedResult to Markdown with one section per genre bucket
func ExportToMarkdown(result *models.CategorizedResult, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Genre Shelf"
	}

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Genres**: %d\n", result.Len()))
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", result.TotalEntries()))

	for _, bucket := range result.Buckets {
		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", bucket.Genre, len(bucket.Tracks)))
		for i, track := range bucket.Tracks {
			albumPart := ""
			if track.Album != "" {
				albumPart = fmt.Sprintf(" (%s)", track.Album)
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, artistNames(track), track.Name, albumPart))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a CategorizedResult to plain text format
func ExportToText(result *models.CategorizedResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Genres: %d\n\n", result.Len()))

	for _, bucket := range result.Buckets {
		buf.WriteString(fmt.Sprintf("%s (%d)\n", bucket.Genre, len(bucket.Tracks)))
		for i, track := range bucket.Tracks {
			buf.WriteString(fmt.Sprintf("  %d. %s - %s\n", i+1, artistNames(track), track.Name))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ToJSON generates a pretty-printed JSON representation of the result,
// preserving bucket order.
func ToJSON(result *models.CategorizedResult) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// WriteCSVExport writes a categorized result to {base}_shelf.csv.
//
// Defaults to "genres" as the base filename.
func WriteCSVExport(result *models.CategorizedResult, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = "genres"
	}

	csvData, err := ExportToCSV(result)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	csvFile := baseFilepath + "_shelf.csv"
	if err := os.WriteFile(csvFile, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return csvFile, nil
}

// WriteMarkdownExport writes a categorized result to {base}.md.
//
// Defaults to "genres" as the base filename.
func WriteMarkdownExport(result *models.CategorizedResult, baseFilepath, title string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = "genres"
	}

	mdData, err := ExportToMarkdown(result, title)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := baseFilepath + ".md"
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport writes a categorized result to {base}.txt.
//
// Defaults to "genres" as the base filename.
func WriteTextExport(result *models.CategorizedResult, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = "genres"
	}

	textData, err := ExportToText(result)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	textFile := baseFilepath + ".txt"
	if err := os.WriteFile(textFile, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return textFile, nil
}

func artistNames(track models.Track) string {
	names := lo.Map(track.Artists, func(a models.Artist, _ int) string { return a.Name })
	return strings.Join(names, "; ")
}
