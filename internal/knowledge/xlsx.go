package knowledge

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/shindan/internal/extract"
	"github.com/hyperjump/shindan/internal/models"
)

// Sheet names recognized in a workbook. The first row of each sheet is a header;
// columns are matched by header name, case-insensitively, in any order.
const (
	SheetSymptoms = "symptoms"
	SheetAdvice   = "advice"
	SheetMappings = "mappings"
	SheetKeywords = "keywords"
	SheetSynonyms = "synonyms"
)

// sheetRow exposes one data row by column name.
type sheetRow struct {
	sheet  string
	line   int
	header map[string]int
	cells  []string
}

func (r sheetRow) str(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r sheetRow) integer(col string) (int64, error) {
	v := r.str(col)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("sheet %s row %d: column %s: invalid integer %q", r.sheet, r.line, col, v)
		}
		n = int64(f)
	}
	return n, nil
}

func (r sheetRow) number(col string) (float64, error) {
	v := r.str(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("sheet %s row %d: column %s: invalid number %q", r.sheet, r.line, col, v)
	}
	return f, nil
}

// ParseXLSX reads a workbook with symptoms, advice and mappings sheets, plus optional
// keywords and synonyms sheets.
func ParseXLSX(r io.Reader) (*Base, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]string)
	for _, name := range f.GetSheetList() {
		sheets[strings.ToLower(strings.TrimSpace(name))] = name
	}

	rows := func(key string, required bool) ([]sheetRow, error) {
		name, ok := sheets[key]
		if !ok {
			if required {
				return nil, fmt.Errorf("workbook is missing sheet %q", key)
			}
			return nil, nil
		}
		raw, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", name, err)
		}
		if len(raw) == 0 {
			return nil, nil
		}
		header := make(map[string]int, len(raw[0]))
		for i, h := range raw[0] {
			header[strings.ToLower(strings.TrimSpace(h))] = i
		}
		out := make([]sheetRow, 0, len(raw)-1)
		for i, cells := range raw[1:] {
			if isBlank(cells) {
				continue
			}
			out = append(out, sheetRow{sheet: key, line: i + 2, header: header, cells: cells})
		}
		return out, nil
	}

	b := &Base{}

	symptomRows, err := rows(SheetSymptoms, true)
	if err != nil {
		return nil, err
	}
	for _, row := range symptomRows {
		id, err := row.integer("id")
		if err != nil {
			return nil, err
		}
		b.Symptoms = append(b.Symptoms, models.Symptom{
			ID:          id,
			Name:        row.str("name"),
			Category:    row.str("category"),
			Severity:    models.ParseSeverity(row.str("severity_level")),
			Description: row.str("description"),
		})
	}

	adviceRows, err := rows(SheetAdvice, true)
	if err != nil {
		return nil, err
	}
	for _, row := range adviceRows {
		id, err := row.integer("id")
		if err != nil {
			return nil, err
		}
		b.Advice = append(b.Advice, models.AdviceEntry{
			ID:              id,
			Title:           row.str("title"),
			Description:     row.str("description"),
			Recommendation:  row.str("recommendation"),
			Severity:        models.ParseSeverity(row.str("severity_level")),
			Category:        row.str("category"),
			WhenToSeeDoctor: row.str("when_to_see_doctor"),
			EmergencySigns:  row.str("emergency_signs"),
		})
	}

	mappingRows, err := rows(SheetMappings, true)
	if err != nil {
		return nil, err
	}
	for _, row := range mappingRows {
		symptomID, err := row.integer("symptom_id")
		if err != nil {
			return nil, err
		}
		adviceID, err := row.integer("advice_id")
		if err != nil {
			return nil, err
		}
		weight, err := row.number("weight")
		if err != nil {
			return nil, err
		}
		b.Mappings = append(b.Mappings, models.Mapping{SymptomID: symptomID, AdviceID: adviceID, Weight: weight})
	}

	keywordRows, err := rows(SheetKeywords, false)
	if err != nil {
		return nil, err
	}
	for _, row := range keywordRows {
		b.Keywords = append(b.Keywords, extract.KeywordMapping{Keyword: row.str("keyword"), Symptom: row.str("symptom")})
	}

	synonymRows, err := rows(SheetSynonyms, false)
	if err != nil {
		return nil, err
	}
	for _, row := range synonymRows {
		name := strings.ToLower(row.str("symptom"))
		syn := row.str("synonym")
		if name == "" || syn == "" {
			continue
		}
		if b.Synonyms == nil {
			b.Synonyms = make(map[string][]string)
		}
		b.Synonyms[name] = append(b.Synonyms[name], syn)
	}

	return b, nil
}

// WriteXLSX writes b as a workbook that ParseXLSX can read back.
func (b *Base) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	write := func(sheet string, header []string, rows [][]interface{}) error {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
		headerRow := make([]interface{}, len(header))
		for i, h := range header {
			headerRow[i] = h
		}
		all := append([][]interface{}{headerRow}, rows...)
		for i, row := range all {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write sheet %q: %w", sheet, err)
			}
		}
		return nil
	}

	var symptoms [][]interface{}
	for _, s := range b.Symptoms {
		symptoms = append(symptoms, []interface{}{s.ID, s.Name, s.Category, s.Severity.String(), s.Description})
	}
	if err := write(SheetSymptoms, []string{"id", "name", "category", "severity_level", "description"}, symptoms); err != nil {
		return err
	}

	var advice [][]interface{}
	for _, a := range b.Advice {
		advice = append(advice, []interface{}{a.ID, a.Title, a.Description, a.Recommendation, a.Severity.String(), a.Category, a.WhenToSeeDoctor, a.EmergencySigns})
	}
	if err := write(SheetAdvice, []string{"id", "title", "description", "recommendation", "severity_level", "category", "when_to_see_doctor", "emergency_signs"}, advice); err != nil {
		return err
	}

	var mappings [][]interface{}
	for _, m := range b.Mappings {
		mappings = append(mappings, []interface{}{m.SymptomID, m.AdviceID, m.Weight})
	}
	if err := write(SheetMappings, []string{"symptom_id", "advice_id", "weight"}, mappings); err != nil {
		return err
	}

	if len(b.Keywords) > 0 {
		var keywords [][]interface{}
		for _, k := range b.Keywords {
			keywords = append(keywords, []interface{}{k.Keyword, k.Symptom})
		}
		if err := write(SheetKeywords, []string{"keyword", "symptom"}, keywords); err != nil {
			return err
		}
	}

	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx >= 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}
	return f.Write(w)
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
