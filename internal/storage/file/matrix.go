package file

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrMalformed is returned for input that is not a whitespace separated table of numbers.
var ErrMalformed = errors.New("malformed input")

const maxLine = 64 * 1024 * 1024

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open '%s': %w", path, err)
	}
	return f, nil
}

func create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create '%s': %w", path, err)
	}
	return f, nil
}

// scan calls parse for the fields of every non blank line.
func scan(r io.Reader, parse func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := parse(line, fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not read input: %w", err)
	}
	return nil
}

func parseFloat(line, col int, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d column %d '%s': %w", line, col+1, s, ErrMalformed)
	}
	return v, nil
}

// ReadMatrix reads a whitespace separated table of numbers, one row per line.
// Cells like 'nan' or 'inf' are parsed as such, validation is left to the caller.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	var data []float64
	cols, rows := 0, 0
	err := scan(r, func(line int, fields []string) error {
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return fmt.Errorf("line %d has %d columns instead of %d: %w", line, len(fields), cols, ErrMalformed)
		}
		for i, s := range fields {
			v, err := parseFloat(line, i, s)
			if err != nil {
				return err
			}
			data = append(data, v)
		}
		rows++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return &mat.Dense{}, nil
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadMatrixFile reads the matrix of the given file.
func ReadMatrixFile(path string) (*mat.Dense, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMatrix(f)
}

// ReadVector reads whitespace separated numbers, in any line layout.
func ReadVector(r io.Reader) ([]float64, error) {
	var v []float64
	err := scan(r, func(line int, fields []string) error {
		for i, s := range fields {
			f, err := parseFloat(line, i, s)
			if err != nil {
				return err
			}
			v = append(v, f)
		}
		return nil
	})
	return v, err
}

// ReadVectorFile reads the vector of the given file.
func ReadVectorFile(path string) ([]float64, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadVector(f)
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteMatrix writes the matrix as tab separated rows.
func WriteMatrix(w io.Writer, m mat.Matrix) error {
	bw := bufio.NewWriter(w)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(format(m.At(i, j)))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not write matrix: %w", err)
	}
	return nil
}

// WriteVector writes one value per line.
func WriteVector(w io.Writer, v []float64) error {
	bw := bufio.NewWriter(w)
	for _, f := range v {
		bw.WriteString(format(f))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not write vector: %w", err)
	}
	return nil
}

// WriteLabels writes one label per line.
func WriteLabels(w io.Writer, labels []int) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		bw.WriteString(strconv.Itoa(l))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not write labels: %w", err)
	}
	return nil
}

// WriteFile creates the file at path and writes to it with the given writer.
func WriteFile(path string, write func(w io.Writer) error) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
