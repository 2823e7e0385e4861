package migrator

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const hashPrefix = "h1:"

type (
	// SumFile records a chained hash for every migration file plus a total
	// hash over all of them. Each file's hash covers its content and the hash
	// of the file before it, so reordering, editing or removing a migration
	// changes every hash that follows.
	SumFile struct {
		entries []sumEntry
		total   string
	}

	sumEntry struct {
		name string
		hash []byte
	}
)

// NewSumFile returns an empty SumFile.
//
// Example:
//
//	sum := migrator.NewSumFile()
//	sum.Add("V2__create_book_sequence.sql", seq)
//	sum.Add("V3__create_book_table.sql", table)
//	_, err := sum.WriteTo(f)
func NewSumFile() *SumFile {
	return &SumFile{}
}

// ReadSumFile parses the format produced by WriteTo:
//
//	h1:<total>
//	<file> h1:<hash>
//	...
//
// An empty input yields an empty SumFile.
func ReadSumFile(r io.Reader) (*SumFile, error) {
	sum := NewSumFile()
	scanner := bufio.NewScanner(r)

	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if first {
			first = false
			if !strings.HasPrefix(line, hashPrefix) {
				return nil, errors.Errorf("invalid total hash: %s", line)
			}
			sum.total = line
			continue
		}

		name, encoded, ok := strings.Cut(line, " ")
		if !ok || !strings.HasPrefix(encoded, hashPrefix) {
			return nil, errors.Errorf("invalid sum entry: %s", line)
		}

		hash, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, hashPrefix))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hash for %s", name)
		}

		sum.entries = append(sum.entries, sumEntry{name: name, hash: hash})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read sum file")
	}

	return sum, nil
}

// Add appends a file. Files must be added in version order.
func (s *SumFile) Add(name string, content []byte) {
	h := sha256.New()
	h.Write(content)
	if n := len(s.entries); n > 0 {
		h.Write(s.entries[n-1].hash)
	}

	s.entries = append(s.entries, sumEntry{name: name, hash: h.Sum(nil)})
	s.total = ""
}

// Len returns the number of files.
func (s *SumFile) Len() int {
	return len(s.entries)
}

// Names returns the recorded file names in order.
func (s *SumFile) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}

	return names
}

// Total returns the h1 hash over all file hashes, or "" when there are none.
func (s *SumFile) Total() string {
	if s.total != "" || len(s.entries) == 0 {
		return s.total
	}

	h := sha256.New()
	for _, e := range s.entries {
		h.Write(e.hash)
	}

	s.total = hashPrefix + base64.StdEncoding.EncodeToString(h.Sum(nil))
	return s.total
}

// Diff returns the names of files whose hash differs between s and other,
// including files present in only one of them. Because hashes are chained,
// the first edited file and every file after it are reported.
func (s *SumFile) Diff(other *SumFile) []string {
	theirs := make(map[string]string, len(other.entries))
	for _, e := range other.entries {
		theirs[e.name] = encodeHash(e.hash)
	}

	var out []string
	for _, e := range s.entries {
		h, ok := theirs[e.name]
		if !ok || h != encodeHash(e.hash) {
			out = append(out, e.name)
		}
		delete(theirs, e.name)
	}

	for _, e := range other.entries {
		if _, ok := theirs[e.name]; ok {
			out = append(out, e.name)
		}
	}

	return out
}

// WriteTo implements io.WriterTo.
func (s *SumFile) WriteTo(w io.Writer) (int64, error) {
	var written int64

	n, err := fmt.Fprintln(w, s.Total())
	written += int64(n)
	if err != nil {
		return written, err
	}

	for _, e := range s.entries {
		n, err := fmt.Fprintf(w, "%s %s\n", e.name, encodeHash(e.hash))
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

func encodeHash(hash []byte) string {
	return hashPrefix + base64.StdEncoding.EncodeToString(hash)
}
