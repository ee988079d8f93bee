package catalog

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DavidSBennett/PlayingInThePast/engine"
)

// RowError reports a single rejected row of an uploaded card file. Row is
// the 1-based row number within the file, counting the CSV header.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult carries the rows that parsed cleanly alongside the rows that
// did not. A file with errors still imports its valid rows.
type ImportResult struct {
	Cards  []engine.HistoricalCard `json:"cards"`
	Errors []RowError              `json:"errors,omitempty"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportCSV parses an uploaded CSV card file. The first row must be a header
// naming a subset of the template columns; rows are validated independently
// so one malformed row never sinks the batch. All imported cards are archive
// cards.
func ImportCSV(r io.Reader) (ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("catalog: read upload: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return ImportResult{}, fmt.Errorf("catalog: file is not valid UTF-8, re-save the CSV with UTF-8 encoding")
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return ImportResult{}, fmt.Errorf("catalog: empty file")
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("catalog: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["title"]; !ok {
		return ImportResult{}, fmt.Errorf("catalog: header is missing the title column")
	}

	var out ImportResult
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			out.Errors = append(out.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		card := engine.HistoricalCard{
			Title:        field("title"),
			SourceType:   engine.SourceType(field("source_type")),
			Content:      field("content"),
			Date:         field("date"),
			Author:       field("author"),
			Location:     field("location"),
			Significance: field("significance"),
			ImageURL:     field("image_url"),
			Argument:     engine.Argument(field("argument")),
			SubArgument:  engine.SubArgument(field("sub_argument")),
		}
		if seq := field("sequence_number"); seq != "" {
			n, err := strconv.Atoi(seq)
			if err != nil {
				out.Errors = append(out.Errors, RowError{Row: row, Message: fmt.Sprintf("sequence_number %q is not a number", seq)})
				continue
			}
			card.SequenceNumber = n
		}
		if msg := validateCard(&card); msg != "" {
			out.Errors = append(out.Errors, RowError{Row: row, Message: msg})
			continue
		}
		card.IsArchive = true
		out.Cards = append(out.Cards, card)
	}
	return out, nil
}

// ImportJSON parses an uploaded JSON card file: an array of card objects in
// the template shape.
func ImportJSON(r io.Reader) (ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("catalog: read upload: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return ImportResult{}, fmt.Errorf("catalog: file is not valid UTF-8")
	}

	var cards []engine.HistoricalCard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return ImportResult{}, fmt.Errorf("catalog: decode JSON: %w", err)
	}

	var out ImportResult
	for i := range cards {
		card := cards[i]
		if msg := validateCard(&card); msg != "" {
			out.Errors = append(out.Errors, RowError{Row: i + 1, Message: msg})
			continue
		}
		card.IsArchive = true
		out.Cards = append(out.Cards, card)
	}
	return out, nil
}

// validateCard checks required fields and enum values, normalizing the
// source type in place. It returns an empty string for a valid card.
func validateCard(c *engine.HistoricalCard) string {
	if c.Title == "" {
		return "title is required"
	}
	if c.Content == "" {
		return "content is required"
	}
	if c.Date == "" {
		return "date is required"
	}
	c.SourceType = NormalizeSourceType(string(c.SourceType))
	switch c.Argument {
	case "", engine.ArgumentA, engine.ArgumentB, engine.ArgumentC:
	default:
		return fmt.Sprintf("argument %q must be A, B or C", c.Argument)
	}
	switch c.SubArgument {
	case "", engine.SubArgumentE, engine.SubArgumentP, engine.SubArgumentS:
	default:
		return fmt.Sprintf("sub_argument %q must be E, P or S", c.SubArgument)
	}
	return ""
}
