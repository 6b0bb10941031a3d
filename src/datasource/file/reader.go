// reader.go
package file

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/htmlindex"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/utils"
)

// RequiredColumns must be present after header normalization.
var RequiredColumns = models.CleanColumns

// Options tune how a raw delay file is read.
type Options struct {
	SheetName string // xlsx only, first sheet when empty
	Encoding  string // WHATWG label such as "windows-1252", utf-8 when empty
}

// Load reads the raw delay file at path into a DataFrame of string columns
// with normalized headers. Files ending in .xlsx are read as workbooks,
// anything else as comma separated text.
func Load(path string, opts Options) (dataframe.DataFrame, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, rows, err = ReadXLSX(path, opts.SheetName)
	default:
		header, rows, err = ReadCSV(path, opts.Encoding)
	}
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	header = NormalizeNames(header)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		convertSerialCells(header, rows)
	}

	df, err := convertRecordsToDataFrame(header, rows)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", models.ErrIO, path, err)
	}
	if missing := utils.MissingColumns(df, RequiredColumns); len(missing) > 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s is missing column(s) %s",
			models.ErrSchema, path, strings.Join(missing, ", "))
	}
	return df, nil
}

// ReadCSV returns the header and data rows of a delimited text file. A UTF-8
// byte order mark is dropped; other encodings are decoded first.
func ReadCSV(path, encoding string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	defer f.Close()

	decoder, err := sourceDecoder(encoding)
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(transform.NewReader(f, xunicode.BOMOverride(decoder)))
	header, err = r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %s has no header row", models.ErrIO, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", models.ErrIO, path, err)
	}

	rows, err = r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", models.ErrIO, path, err)
	}
	return header, rows, nil
}

func sourceDecoder(label string) (transform.Transformer, error) {
	if label == "" {
		return xunicode.UTF8.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown source encoding %q", models.ErrIO, label)
	}
	return enc.NewDecoder(), nil
}

// ReadXLSX returns the header (first row) and data rows of a worksheet. An
// empty sheetName selects the first sheet.
func ReadXLSX(filePath, sheetName string) (header []string, rows [][]string, err error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", models.ErrIO, filePath, err)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no worksheets", models.ErrIO, filePath)
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		var ok bool
		if sheet, ok = xlFile.Sheet[sheetName]; !ok {
			return nil, nil, fmt.Errorf("%w: %s has no sheet %q", models.ErrIO, filePath, sheetName)
		}
	}
	if len(sheet.Rows) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet %q has no header row", models.ErrIO, sheet.Name)
	}

	for _, cell := range sheet.Rows[0].Cells {
		header = append(header, cell.Value)
	}
	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		values := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			values = append(values, cell.Value)
		}
		if isBlank(values) {
			continue
		}
		rows = append(rows, values)
	}
	return header, rows, nil
}

// convertSerialCells rewrites the Excel serial numbers a workbook stores for
// the date and time columns as yyyy-mm-dd and hh:mm.
func convertSerialCells(header []string, rows [][]string) {
	for c, name := range header {
		var layout string
		switch name {
		case models.ColDate:
			layout = "2006-01-02"
		case models.ColTime:
			layout = "15:04"
		default:
			continue
		}
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			if serial, ok := utils.ExcelSerial(row[c]); ok {
				row[c] = utils.ExcelSerialToTime(serial).Format(layout)
			}
		}
	}
}

// convertRecordsToDataFrame builds one string series per header. Short rows
// are padded with empty cells; cells past the header are an error.
func convertRecordsToDataFrame(header []string, rows [][]string) (dataframe.DataFrame, error) {
	if len(header) == 0 {
		return dataframe.DataFrame{}, errors.New("empty header row")
	}

	columns := make([][]string, len(header))
	for i := range columns {
		columns[i] = make([]string, 0, len(rows))
	}
	for r, row := range rows {
		if len(row) > len(header) && !isBlank(row[len(header):]) {
			return dataframe.DataFrame{}, fmt.Errorf("row %d has %d cells, header has %d", utils.LineNumber(r), len(row), len(header))
		}
		for i := range header {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			columns[i] = append(columns[i], v)
		}
	}

	seriesList := make([]series.Series, len(header))
	for i, colName := range header {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	df := dataframe.New(seriesList...)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
