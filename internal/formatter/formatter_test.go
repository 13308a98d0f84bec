package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genreshelf/genreshelf/internal/models"
	th "github.com/genreshelf/genreshelf/internal/testing"
)

func fixtureResult() *models.CategorizedResult {
	rock1 := th.Track("track1", "a1")
	rock1.Name = "Song One"
	rock1.Album = "Album One"
	rock1.Popularity = 70

	rock2 := th.Track("track2", "a2")
	rock2.Name = "Song Two"

	pop := th.Track("track3", "a3")
	pop.Name = "Song Three"

	return &models.CategorizedResult{
		Buckets: []models.GenreBucket{
			{Genre: "rock", Tracks: []models.Track{rock1, rock2}},
			{Genre: "pop", Tracks: []models.Track{pop}},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(fixtureResult())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Genre,ID,Title,Artists,Album,Popularity") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "rock,track1,Song One") {
			t.Errorf("CSV missing rock row for track1, got: %s", output)
		}
		if !strings.Contains(output, "pop,track3,Song Three") {
			t.Errorf("CSV missing pop row for track3, got: %s", output)
		}
		if !strings.Contains(output, "Album One") {
			t.Error("CSV missing album")
		}
	})

	t.Run("ExportToCSV fans out multi-genre tracks", func(t *testing.T) {
		track := th.Track("track1", "a1")
		result := &models.CategorizedResult{
			Buckets: []models.GenreBucket{
				{Genre: "rock", Tracks: []models.Track{track}},
				{Genre: "pop", Tracks: []models.Track{track}},
			},
		}

		data, err := ExportToCSV(result)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		if got := strings.Count(string(data), "track1"); got != 2 {
			t.Errorf("expected track1 in 2 rows, got %d", got)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(fixtureResult(), "My Shelf")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# My Shelf") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "## rock (2)") {
			t.Errorf("Markdown missing rock section, got: %s", output)
		}
		if !strings.Contains(output, "## pop (1)") {
			t.Error("Markdown missing pop section")
		}
		if strings.Index(output, "## rock") > strings.Index(output, "## pop") {
			t.Error("Markdown sections should keep bucket order")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(fixtureResult())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "rock (2)") {
			t.Errorf("text missing rock bucket, got: %s", output)
		}
		if !strings.Contains(output, "1. Artist a1 - Song One") {
			t.Errorf("text missing numbered track line, got: %s", output)
		}
	})

	t.Run("ToJSON preserves bucket order", func(t *testing.T) {
		data, err := ToJSON(fixtureResult())
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		output := string(data)
		if strings.Index(output, `"rock"`) > strings.Index(output, `"pop"`) {
			t.Error("expected rock before pop in JSON output")
		}
	})

	t.Run("empty result", func(t *testing.T) {
		empty := &models.CategorizedResult{}

		data, err := ExportToCSV(empty)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if lines := strings.Count(strings.TrimSpace(string(data)), "\n"); lines != 0 {
			t.Errorf("expected headers only for empty result, got: %s", data)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "shelf")

		path, err := WriteCSVExport(fixtureResult(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		if path != base+"_shelf.csv" {
			t.Errorf("unexpected path: %s", path)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "shelf")

		path, err := WriteMarkdownExport(fixtureResult(), base, "My Shelf")
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.Contains(content, "# My Shelf") {
			t.Error("expected title in written file")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "shelf")

		path, err := WriteTextExport(fixtureResult(), base)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("write failure surfaces", func(t *testing.T) {
		if _, err := WriteTextExport(fixtureResult(), string(os.PathSeparator)+"no-such-dir"+string(os.PathSeparator)+"deep"+string(os.PathSeparator)+"shelf"); err == nil {
			t.Error("expected error writing to missing directory")
		}
	})
}
