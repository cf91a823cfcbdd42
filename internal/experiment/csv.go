package experiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// csvHeader is the column schema of sweep result files.
var csvHeader = []string{
	"Code",
	"NoiseProfile",
	"Decoder",
	"Pauli",
	"X-Distance",
	"Z-Distance",
	"Num_Rounds",
	"Num_Shots",
	"Physical Error",
	"Logical Error Mean",
	"Logical Error Std",
}

func (r Result) record() []string {
	return []string{
		r.Code,
		r.NoiseProfile,
		r.Decoder,
		r.Pauli,
		strconv.Itoa(r.XDistance),
		strconv.Itoa(r.ZDistance),
		strconv.Itoa(r.Rounds),
		strconv.Itoa(r.Shots),
		strconv.FormatFloat(r.PhysicalError, 'g', -1, 64),
		strconv.FormatFloat(r.LogicalErrorMean, 'g', -1, 64),
		strconv.FormatFloat(r.LogicalErrorStd, 'g', -1, 64),
	}
}

// WriteResults writes a header and one row per result to w.
func WriteResults(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendResults appends rows to the file at path, creating it with a
// header first when it does not exist or is empty.
func AppendResults(path string, results []Result) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, r := range results {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadResults parses a result file written by WriteResults.
func ReadResults(r io.Reader) ([]Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("column %d is %q, want %q", i, header[i], col)
		}
	}

	var results []Result
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		res, err := parseRecord(record)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func parseRecord(record []string) (Result, error) {
	res := Result{
		Code:         record[0],
		NoiseProfile: record[1],
		Decoder:      record[2],
		Pauli:        record[3],
	}
	ints := []struct {
		field *int
		value string
	}{
		{&res.XDistance, record[4]},
		{&res.ZDistance, record[5]},
		{&res.Rounds, record[6]},
		{&res.Shots, record[7]},
	}
	for _, c := range ints {
		n, err := strconv.Atoi(c.value)
		if err != nil {
			return Result{}, fmt.Errorf("bad integer field %q: %w", c.value, err)
		}
		*c.field = n
	}
	floats := []struct {
		field *float64
		value string
	}{
		{&res.PhysicalError, record[8]},
		{&res.LogicalErrorMean, record[9]},
		{&res.LogicalErrorStd, record[10]},
	}
	for _, c := range floats {
		v, err := strconv.ParseFloat(c.value, 64)
		if err != nil {
			return Result{}, fmt.Errorf("bad float field %q: %w", c.value, err)
		}
		*c.field = v
	}
	return res, nil
}
