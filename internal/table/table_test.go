package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiarizationTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diarization.csv")
	segs := []DiarizationSegment{
		{Speaker: "SPEAKER_00", StartTime: 0.5, EndTime: 2.25, Duration: 1.75},
		{Speaker: "SPEAKER_01", StartTime: 3, EndTime: 4.1, Duration: 1.1},
	}

	if err := WriteDiarization(path, segs); err != nil {
		t.Fatalf("WriteDiarization() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, bom) {
		t.Error("table should start with a UTF-8 BOM")
	}
	if !strings.HasPrefix(string(data[len(bom):]), "speaker,start_time,end_time,duration\n") {
		t.Errorf("unexpected header: %q", string(data))
	}

	got, err := ReadDiarization(path)
	if err != nil {
		t.Fatalf("ReadDiarization() error = %v", err)
	}
	if len(got) != 2 || got[1] != segs[1] {
		t.Errorf("ReadDiarization() = %+v", got)
	}
}

func TestCorrectedTableKeepsQuotedText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "correction.csv")
	seg := CorrectedSegment{
		TranscriptSegment: TranscriptSegment{
			DiarizationSegment: DiarizationSegment{Speaker: "A", StartTime: 1, EndTime: 2, Duration: 1},
			Text:               `привет, "мир"`,
			WordCount:          2,
		},
		CorrectedText: "Привет,\nмир!",
	}

	if err := WriteCorrected(path, []CorrectedSegment{seg}); err != nil {
		t.Fatalf("WriteCorrected() error = %v", err)
	}

	got, err := ReadCorrected(path)
	if err != nil {
		t.Fatalf("ReadCorrected() error = %v", err)
	}
	if len(got) != 1 || got[0] != seg {
		t.Errorf("ReadCorrected() = %+v, want %+v", got, seg)
	}

	// The correction table is also a valid recognition table.
	asTranscripts, err := ReadTranscripts(path)
	if err != nil {
		t.Fatalf("ReadTranscripts() error = %v", err)
	}
	if asTranscripts[0].Text != seg.Text {
		t.Errorf("Text = %q", asTranscripts[0].Text)
	}
}

func TestSummaryTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summarization.csv")
	rows := []SpeakerSummary{
		{Speaker: "A", OriginalTextLength: 10, SummaryLength: 4, CompressionRatio: 0.4, Summary: "Hi."},
	}
	if err := WriteSummaries(path, rows); err != nil {
		t.Fatalf("WriteSummaries() error = %v", err)
	}
	got, err := ReadSummaries(path)
	if err != nil {
		t.Fatalf("ReadSummaries() error = %v", err)
	}
	if len(got) != 1 || got[0] != rows[0] {
		t.Errorf("ReadSummaries() = %+v", got)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"missing column", "speaker,start_time,end_time\nA,1,2\n"},
		{"bad number", "speaker,start_time,end_time,duration\nA,one,2,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".csv")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := ReadDiarization(path); err == nil {
				t.Error("ReadDiarization() should fail")
			}
		})
	}

	if _, err := ReadDiarization(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("ReadDiarization() should fail for a missing file")
	}
}
