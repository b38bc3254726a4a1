// Package io provides the format adapters of the module: CSV for
// tabular datasets, BIF for categorical Bayesian networks, and a
// self-describing JSON codec for every serialisable object.
package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/data"
)

// ReadCatTable reads a complete categorical table from CSV: the header
// row defines the labels, each following row one sample. The state set
// of each variable is collected from the values.
func ReadCatTable(r io.Reader) (*data.CatTable, error) {
	labels, records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	vars, values, err := recordsToCategorical(labels, records, false)
	if err != nil {
		return nil, err
	}
	return data.NewCatTable(vars, values)
}

// ReadCatIncTable reads an incomplete categorical table from CSV: an
// empty cell marks a missing value.
func ReadCatIncTable(r io.Reader) (*data.CatIncTable, error) {
	labels, records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	vars, values, err := recordsToCategorical(labels, records, true)
	if err != nil {
		return nil, err
	}
	return data.NewCatIncTable(vars, values)
}

func readRecords(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrMissingHeader
	}
	header := rows[0]
	for _, record := range rows[1:] {
		if len(record) != len(header) {
			return nil, nil, fmt.Errorf(
				"%w: record has %d fields, header has %d",
				ErrInvalidFormat, len(record), len(header),
			)
		}
	}
	return header, rows[1:], nil
}

func recordsToCategorical(labels []string, records [][]string, allowMissing bool) ([]data.Variable, [][]byte, error) {
	states := make([]map[string]bool, len(labels))
	for c := range states {
		states[c] = make(map[string]bool)
	}
	for r, record := range records {
		for c, cell := range record {
			if cell == "" {
				if !allowMissing {
					return nil, nil, fmt.Errorf(
						"%w: row %d column %q", ErrMissingValue, r, labels[c],
					)
				}
				continue
			}
			states[c][cell] = true
		}
	}

	vars := make([]data.Variable, len(labels))
	index := make([]map[string]byte, len(labels))
	for c, label := range labels {
		sorted := make([]string, 0, len(states[c]))
		for s := range states[c] {
			sorted = append(sorted, s)
		}
		sort.Strings(sorted)
		vars[c] = data.Variable{Label: label, States: sorted}
		index[c] = make(map[string]byte, len(sorted))
		for i, s := range sorted {
			index[c][s] = byte(i)
		}
	}

	values := make([][]byte, len(records))
	for r, record := range records {
		row := make([]byte, len(labels))
		for c, cell := range record {
			if cell == "" {
				row[c] = data.Missing
				continue
			}
			row[c] = index[c][cell]
		}
		values[r] = row
	}
	return vars, values, nil
}

// WriteCatTable writes a complete categorical table as CSV, emitting
// categorical values as their state labels.
func WriteCatTable(w io.Writer, t *data.CatTable) error {
	return writeCategorical(w, t.Variables(), t.Values())
}

// WriteCatIncTable writes an incomplete categorical table as CSV,
// emitting missing cells as empty strings.
func WriteCatIncTable(w io.Writer, t *data.CatIncTable) error {
	return writeCategorical(w, t.Variables(), t.Values())
}

func writeCategorical(w io.Writer, vars []data.Variable, values [][]byte) error {
	writer := csv.NewWriter(w)
	header := make([]string, len(vars))
	for c, v := range vars {
		header[c] = v.Label
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	record := make([]string, len(vars))
	for _, row := range values {
		for c, v := range row {
			if v == data.Missing {
				record[c] = ""
				continue
			}
			record[c] = vars[c].States[v]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadGaussTable reads a complete Gaussian table from CSV.
func ReadGaussTable(r io.Reader) (*data.GaussTable, error) {
	labels, values, err := readReal(r, false)
	if err != nil {
		return nil, err
	}
	return data.NewGaussTable(labels, values)
}

// ReadGaussIncTable reads an incomplete Gaussian table from CSV: an
// empty cell marks a missing value.
func ReadGaussIncTable(r io.Reader) (*data.GaussIncTable, error) {
	labels, values, err := readReal(r, true)
	if err != nil {
		return nil, err
	}
	return data.NewGaussIncTable(labels, values)
}

func readReal(r io.Reader, allowMissing bool) ([]string, *mat.Dense, error) {
	labels, records, err := readRecords(r)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return labels, nil, nil
	}
	values := mat.NewDense(len(records), len(labels), nil)
	for i, record := range records {
		for c, cell := range record {
			if cell == "" {
				if !allowMissing {
					return nil, nil, fmt.Errorf(
						"%w: row %d column %q", ErrMissingValue, i, labels[c],
					)
				}
				values.Set(i, c, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf(
					"%w: row %d column %q: %v", ErrInvalidFormat, i, labels[c], err,
				)
			}
			values.Set(i, c, v)
		}
	}
	return labels, values, nil
}

// WriteGaussTable writes a complete Gaussian table as CSV.
func WriteGaussTable(w io.Writer, t *data.GaussTable) error {
	return writeReal(w, t.Labels(), t.Values())
}

// WriteGaussIncTable writes an incomplete Gaussian table as CSV,
// emitting missing cells as empty strings.
func WriteGaussIncTable(w io.Writer, t *data.GaussIncTable) error {
	return writeReal(w, t.Labels(), t.Values())
}

func writeReal(w io.Writer, labels []string, values *mat.Dense) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(labels); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if values != nil {
		rows, cols := values.Dims()
		record := make([]string, cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				v := values.At(r, c)
				if math.IsNaN(v) {
					record[c] = ""
					continue
				}
				record[c] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
