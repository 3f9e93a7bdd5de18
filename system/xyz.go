package system

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// Structure is one frame of an extended-XYZ trajectory.
type Structure struct {
	Symbols []string
	// Info holds the numeric key=value pairs of the comment line.
	Info map[string]float64
}

// ReadXYZFile reads every frame of an extended-XYZ file.
func ReadXYZFile(path string) ([]Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewConfigurationError("system.filename", "structure file is not readable", err)
	}
	defer f.Close()
	return readXYZ(f, path)
}

// ReadXYZ reads every frame of an extended-XYZ stream. At least one frame is
// required.
func ReadXYZ(r io.Reader) ([]Structure, error) {
	return readXYZ(r, "xyz")
}

func readXYZ(r io.Reader, source string) ([]Structure, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var frames []Structure
	line := 0
	for {
		var count string
		for {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, errors.Wrapf(err, "read %s", source)
				}
				if len(frames) == 0 {
					return nil, errors.NewParseError(source, line, "no structures found")
				}
				return frames, nil
			}
			line++
			count = strings.TrimSpace(scanner.Text())
			if count != "" {
				break
			}
		}

		natoms, err := strconv.Atoi(count)
		if err != nil || natoms <= 0 {
			return nil, errors.NewParseError(source, line, "expected positive atom count, got "+strconv.Quote(count))
		}

		if !scanner.Scan() {
			return nil, errors.NewParseError(source, line+1, "missing comment line")
		}
		line++
		frame := Structure{
			Symbols: make([]string, natoms),
			Info:    parseComment(scanner.Text()),
		}

		for iat := 0; iat < natoms; iat++ {
			if !scanner.Scan() {
				return nil, errors.NewParseError(source, line+1, "structure ends after "+strconv.Itoa(iat)+" atoms")
			}
			line++
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				return nil, errors.NewParseError(source, line, "empty atom line")
			}
			frame.Symbols[iat] = fields[0]
		}
		frames = append(frames, frame)
	}
}

// parseComment extracts numeric key=value pairs. Values may be double
// quoted; non-numeric values and bare words are ignored.
func parseComment(text string) map[string]float64 {
	info := make(map[string]float64)
	for _, tok := range splitQuoted(text) {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			continue
		}
		value = strings.Trim(value, `"`)
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			info[key] = v
		}
	}
	return info
}

func splitQuoted(s string) []string {
	var (
		out    []string
		cur    strings.Builder
		quoted bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case !quoted && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
