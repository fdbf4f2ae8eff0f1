// SPDX-License-Identifier: MIT

// Package cover - instance text format.
//
// Grammar (whitespace separated tokens, any line layout):
//
//	numTests numDiseases
//	cost_0 cost_1 … cost_{numTests−1}
//	a_0_0 a_0_1 … a_0_{numDiseases−1}
//	…
//	a_{numTests−1}_0 …
//
// Lines starting with '#' or a DIMACS-style "c " are comments. Storage grows
// with the tokens actually read, so a header that overstates the body fails
// with ErrSyntax instead of reserving memory up front.

package cover

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// tokenReader yields whitespace separated tokens and tracks their line numbers.
type tokenReader struct {
	sc     *bufio.Scanner
	line   int
	fields []string
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &tokenReader{sc: sc}
}

// next returns the next token or io.EOF.
func (tr *tokenReader) next() (string, error) {
	for len(tr.fields) == 0 {
		if !tr.sc.Scan() {
			if err := tr.sc.Err(); err != nil {
				return "", err
			}

			return "", io.EOF
		}
		tr.line++
		text := strings.TrimSpace(tr.sc.Text())
		if text == "" || text == "c" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "c ") {
			continue
		}
		tr.fields = strings.Fields(text)
	}
	tok := tr.fields[0]
	tr.fields = tr.fields[1:]

	return tok, nil
}

func (tr *tokenReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, tr.line, fmt.Sprintf(format, args...))
}

func (tr *tokenReader) int(what string) (int, error) {
	tok, err := tr.next()
	if err == io.EOF {
		return 0, tr.errorf("unexpected end of input reading %s", what)
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, tr.errorf("%s: %q is not an integer", what, tok)
	}

	return v, nil
}

func (tr *tokenReader) float(what string) (float64, error) {
	tok, err := tr.next()
	if err == io.EOF {
		return 0, tr.errorf("unexpected end of input reading %s", what)
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, tr.errorf("%s: %q is not a number", what, tok)
	}

	return v, nil
}

// Parse reads an instance in the text format described above and validates it via New.
//
// Errors: ErrSyntax (with line number) for malformed text, ErrTooManyDiseases
// for an oversized header, plus every error of New.
func Parse(r io.Reader) (*Instance, error) {
	tr := newTokenReader(r)

	numTests, err := tr.int("numTests")
	if err != nil {
		return nil, err
	}
	numDiseases, err := tr.int("numDiseases")
	if err != nil {
		return nil, err
	}
	if numTests <= 0 || numDiseases <= 0 {
		return nil, fmt.Errorf("%w: %d tests, %d diseases", ErrEmptyInstance, numTests, numDiseases)
	}
	if numDiseases > MaxDiseases {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyDiseases, numDiseases, MaxDiseases)
	}

	var (
		costs []float64
		cost  float64
		t, d  int
	)
	for t = 0; t < numTests; t++ {
		if cost, err = tr.float(fmt.Sprintf("cost of test %d", t)); err != nil {
			return nil, err
		}
		costs = append(costs, cost)
	}

	var (
		rows  [][]int
		entry int
	)
	for t = 0; t < numTests; t++ {
		var row []int
		for d = 0; d < numDiseases; d++ {
			if entry, err = tr.int(fmt.Sprintf("A[%d][%d]", t, d)); err != nil {
				return nil, err
			}
			row = append(row, entry)
		}
		rows = append(rows, row)
	}

	if tok, err := tr.next(); err == nil {
		return nil, tr.errorf("trailing token %q", tok)
	} else if err != io.EOF {
		return nil, err
	}

	return New(costs, rows)
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cover: open instance: %w", err)
	}
	defer f.Close()

	inst, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return inst, nil
}
