package system

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// LoadIndexFile reads whitespace-delimited integer rows and returns the
// first column. Blank lines and lines starting with # are skipped.
func LoadIndexFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewConfigurationError(filepath.Base(path), "index file is not readable", err)
	}
	defer f.Close()

	var out []int
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		first := strings.Fields(text)[0]
		v, err := strconv.Atoi(first)
		if err != nil {
			// numpy writes integers as floats when asked to
			fv, ferr := strconv.ParseFloat(first, 64)
			if ferr != nil || fv != float64(int(fv)) {
				return nil, errors.NewParseError(path, line, "expected integer index, got "+strconv.Quote(first))
			}
			v = int(fv)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(out) == 0 {
		return nil, errors.NewParseError(path, 0, "no indices found")
	}
	return out, nil
}

// TestRange returns the sorted indices in [0, ndata) that are not in train.
func TestRange(ndata int, train []int) []int {
	inTrain := make(map[int]bool, len(train))
	for _, i := range train {
		inTrain[i] = true
	}
	out := make([]int, 0, ndata)
	for i := 0; i < ndata; i++ {
		if !inTrain[i] {
			out = append(out, i)
		}
	}
	return out
}

// CheckIndices verifies that every index lies in [0, n).
func CheckIndices(name string, indices []int, n int) error {
	for _, i := range indices {
		if i < 0 || i >= n {
			return errors.NewValidationError(name, fmt.Sprintf("index %d out of range [0, %d)", i, n), i)
		}
	}
	return nil
}

func itoa(i int) string { return strconv.Itoa(i) }
