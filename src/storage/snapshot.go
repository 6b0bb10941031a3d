package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/utils"
)

// SnapshotSheet names the worksheet of the xlsx snapshot.
const SnapshotSheet = "cleaned"

// WriteCSV writes the cleaned columns of df to path with a header row and no
// index column, replacing any existing file. Output goes to a temporary file
// in the same directory first, so a failed write leaves the old file intact.
func WriteCSV(df dataframe.DataFrame, path string) (err error) {
	columns, err := snapshotColumns(df)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(models.CleanColumns); err != nil {
		return fmt.Errorf("%w: write %s: %v", models.ErrIO, path, err)
	}
	record := make([]string, len(columns))
	for row := 0; row < df.Nrow(); row++ {
		for c := range columns {
			record[c] = columns[c][row]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("%w: write %s: %v", models.ErrIO, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: write %s: %v", models.ErrIO, path, err)
	}
	// CreateTemp makes the file 0600
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", models.ErrIO, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	return nil
}

// SaveToExcel writes the same snapshot as WriteCSV to an xlsx workbook with
// delays stored as numbers.
func SaveToExcel(df dataframe.DataFrame, filePath string) error {
	if _, err := snapshotColumns(df); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SnapshotSheet); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}

	header := make([]interface{}, len(models.CleanColumns))
	for i, name := range models.CleanColumns {
		header[i] = name
	}
	if err := f.SetSheetRow(SnapshotSheet, "A1", &header); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}

	cols := make([]series.Series, len(models.CleanColumns))
	for i, name := range models.CleanColumns {
		cols[i] = df.Col(name)
	}
	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		values := make([]interface{}, len(cols))
		for c, col := range cols {
			if col.Type() == series.Float {
				values[c] = col.Elem(rowIdx).Float()
			} else {
				values[c] = col.Elem(rowIdx).String()
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(SnapshotSheet, cell, &values); err != nil {
			return fmt.Errorf("%w: %v", models.ErrIO, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("%w: save %s: %v", models.ErrIO, filePath, err)
	}
	return nil
}

// snapshotColumns renders the cleaned columns as text, floats in shortest form.
func snapshotColumns(df dataframe.DataFrame) ([][]string, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if missing := utils.MissingColumns(df, models.CleanColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: snapshot needs column(s) %s", models.ErrSchema, strings.Join(missing, ", "))
	}

	out := make([][]string, len(models.CleanColumns))
	for i, name := range models.CleanColumns {
		col := df.Col(name)
		if col.Type() == series.Float {
			values := col.Float()
			out[i] = make([]string, len(values))
			for j, v := range values {
				out[i][j] = utils.FormatFloat(v)
			}
			continue
		}
		out[i] = col.Records()
	}
	return out, nil
}
