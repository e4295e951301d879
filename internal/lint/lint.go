// Package lint detects unresolved Git merge-conflict markers left in files.
// A conflicted file contains three marker kinds: a "<<<<<<< ref" line opening
// the local side, a bare "=======" separator, and a ">>>>>>> ref" line closing
// the incoming side. Any of them in committed content is a defect.
package lint

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Marker identifies which conflict delimiter was found.
type Marker string

const (
	MarkerBegin     Marker = "<<<<<<<"
	MarkerSeparator Marker = "======="
	MarkerEnd       Marker = ">>>>>>>"
)

// Finding is a single conflict marker occurrence.
type Finding struct {
	Path   string
	Line   int // 1-based
	Marker Marker
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: unresolved conflict marker %q", f.Path, f.Line, string(f.Marker))
}

// Result aggregates findings across one or more files.
type Result struct {
	Findings     []Finding
	FilesChecked int
}

// OK reports whether no conflict markers were found.
func (r *Result) OK() bool { return len(r.Findings) == 0 }

// dirs never descended into during tree walks.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// CheckReader scans r line by line and returns findings attributed to name.
// Binary content (NUL byte within the first 8000 bytes) yields no findings.
func CheckReader(name string, r io.Reader) ([]Finding, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	head, _ := br.Peek(8000)
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, nil
	}

	var findings []Finding
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if m, ok := matchLine(scanner.Text()); ok {
			findings = append(findings, Finding{Path: name, Line: lineNo, Marker: m})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}
	return findings, nil
}

// matchLine reports whether a line is a conflict marker.
// Begin/end markers require the trailing space Git emits before the ref;
// the separator must be the whole line, so Markdown setext underlines of a
// different length do not trip it.
func matchLine(line string) (Marker, bool) {
	line = strings.TrimRight(line, "\r")
	switch {
	case strings.HasPrefix(line, "<<<<<<< ") || line == "<<<<<<<":
		return MarkerBegin, true
	case line == "=======":
		return MarkerSeparator, true
	case strings.HasPrefix(line, ">>>>>>> ") || line == ">>>>>>>":
		return MarkerEnd, true
	}
	return "", false
}

// CheckFile scans a single file.
func CheckFile(path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return CheckReader(path, f)
}

// CheckTree walks root and checks every regular file, skipping VCS and
// dependency directories. root may also be a single file.
func CheckTree(root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if !info.IsDir() {
		findings, err := CheckFile(root)
		if err != nil {
			return nil, err
		}
		res.Findings = findings
		res.FilesChecked = 1
		return res, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		findings, err := CheckFile(path)
		if err != nil {
			return err
		}
		res.Findings = append(res.Findings, findings...)
		res.FilesChecked++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
