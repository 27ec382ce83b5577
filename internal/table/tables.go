package table

import "strconv"

// WriteDiarization writes speaker,start_time,end_time,duration rows.
func WriteDiarization(path string, segs []DiarizationSegment) error {
	rows := make([][]string, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, diarizationFields(s))
	}
	return writeCSV(path, DiarizationColumns, rows)
}

// ReadDiarization reads a diarization table (or any table that extends it).
func ReadDiarization(path string) ([]DiarizationSegment, error) {
	records, err := readCSV(path, DiarizationColumns)
	if err != nil {
		return nil, err
	}
	segs := make([]DiarizationSegment, 0, len(records))
	for _, r := range records {
		s, err := parseDiarization(r)
		if err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// WriteTranscripts writes the recognition table.
func WriteTranscripts(path string, segs []TranscriptSegment) error {
	rows := make([][]string, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, transcriptFields(s))
	}
	return writeCSV(path, TranscriptColumns, rows)
}

// ReadTranscripts reads a recognition table (or the correction table).
func ReadTranscripts(path string) ([]TranscriptSegment, error) {
	records, err := readCSV(path, TranscriptColumns)
	if err != nil {
		return nil, err
	}
	segs := make([]TranscriptSegment, 0, len(records))
	for _, r := range records {
		s, err := parseTranscript(r)
		if err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// WriteCorrected writes the correction table.
func WriteCorrected(path string, segs []CorrectedSegment) error {
	rows := make([][]string, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, append(transcriptFields(s.TranscriptSegment), s.CorrectedText))
	}
	return writeCSV(path, CorrectedColumns, rows)
}

// ReadCorrected reads the correction table.
func ReadCorrected(path string) ([]CorrectedSegment, error) {
	records, err := readCSV(path, CorrectedColumns)
	if err != nil {
		return nil, err
	}
	segs := make([]CorrectedSegment, 0, len(records))
	for _, r := range records {
		t, err := parseTranscript(r)
		if err != nil {
			return nil, err
		}
		segs = append(segs, CorrectedSegment{TranscriptSegment: t, CorrectedText: r.str("corrected_text")})
	}
	return segs, nil
}

// WriteSummaries writes the summarization table.
func WriteSummaries(path string, rows []SpeakerSummary) error {
	out := make([][]string, 0, len(rows))
	for _, s := range rows {
		out = append(out, []string{
			s.Speaker,
			strconv.Itoa(s.OriginalTextLength),
			strconv.Itoa(s.SummaryLength),
			formatFloat(s.CompressionRatio),
			s.Summary,
		})
	}
	return writeCSV(path, SummarizationColumns, out)
}

// ReadSummaries reads the summarization table.
func ReadSummaries(path string) ([]SpeakerSummary, error) {
	records, err := readCSV(path, SummarizationColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]SpeakerSummary, 0, len(records))
	for _, r := range records {
		orig, err := r.integer("original_text_length")
		if err != nil {
			return nil, err
		}
		sumLen, err := r.integer("summary_length")
		if err != nil {
			return nil, err
		}
		ratio, err := r.number("compression_ratio")
		if err != nil {
			return nil, err
		}
		rows = append(rows, SpeakerSummary{
			Speaker:            r.str("speaker"),
			OriginalTextLength: orig,
			SummaryLength:      sumLen,
			CompressionRatio:   ratio,
			Summary:            r.str("summary"),
		})
	}
	return rows, nil
}

func diarizationFields(s DiarizationSegment) []string {
	return []string{s.Speaker, formatFloat(s.StartTime), formatFloat(s.EndTime), formatFloat(s.Duration)}
}

func transcriptFields(s TranscriptSegment) []string {
	return append(diarizationFields(s.DiarizationSegment), s.Text, strconv.Itoa(s.WordCount))
}

func parseDiarization(r record) (DiarizationSegment, error) {
	start, err := r.number("start_time")
	if err != nil {
		return DiarizationSegment{}, err
	}
	end, err := r.number("end_time")
	if err != nil {
		return DiarizationSegment{}, err
	}
	dur, err := r.number("duration")
	if err != nil {
		return DiarizationSegment{}, err
	}
	return DiarizationSegment{Speaker: r.str("speaker"), StartTime: start, EndTime: end, Duration: dur}, nil
}

func parseTranscript(r record) (TranscriptSegment, error) {
	d, err := parseDiarization(r)
	if err != nil {
		return TranscriptSegment{}, err
	}
	words, err := r.integer("word_count")
	if err != nil {
		return TranscriptSegment{}, err
	}
	return TranscriptSegment{DiarizationSegment: d, Text: r.str("text"), WordCount: words}, nil
}
