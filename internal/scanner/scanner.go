// Package scanner provides the cursor all sub-parsers share: a restartable
// read head over the request-file text with char and line lookahead,
// anchored pattern matching and position snapshots. Backtracking is always
// explicit via Pos/SetPos; no operation consumes input on a failed match.
package scanner

import (
	"regexp"
	"strings"
)

// WSChars are the horizontal whitespace characters recognized between
// tokens and in front of folded request-line continuations.
const WSChars = " \t"

type Scanner struct {
	src string
	pos int
}

func New(src string) *Scanner {
	return &Scanner{src: src}
}

func (s *Scanner) IsDone() bool {
	return s.pos >= len(s.src)
}

// Pos returns the current cursor offset. Offsets are byte positions into
// the source, ordered and comparable, and valid for SetPos and Slice.
func (s *Scanner) Pos() int {
	return s.pos
}

func (s *Scanner) SetPos(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(s.src) {
		pos = len(s.src)
	}
	s.pos = pos
}

func (s *Scanner) Slice(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(s.src) {
		to = len(s.src)
	}
	if from >= to {
		return ""
	}
	return s.src[from:to]
}

func (s *Scanner) Peek() (byte, bool) {
	if s.IsDone() {
		return 0, false
	}
	return s.src[s.pos], true
}

// PeekN returns the next n bytes without consuming them, or false when
// fewer than n remain.
func (s *Scanner) PeekN(n int) (string, bool) {
	if s.pos+n > len(s.src) {
		return "", false
	}
	return s.src[s.pos : s.pos+n], true
}

// PeekLine returns the rest of the current line without its terminator and
// without consuming anything. At end of input it returns false.
func (s *Scanner) PeekLine() (string, bool) {
	if s.IsDone() {
		return "", false
	}
	rest := s.src[s.pos:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		return rest[:idx], true
	}
	return rest, true
}

// ReadLine consumes the rest of the current line, advancing past its
// terminator when one exists.
func (s *Scanner) ReadLine() (string, bool) {
	line, ok := s.PeekLine()
	if !ok {
		return "", false
	}
	s.pos += len(line)
	if s.pos < len(s.src) {
		s.pos++
	}
	return line, true
}

func (s *Scanner) SkipToNextLine() {
	if _, ok := s.ReadLine(); !ok {
		s.pos = len(s.src)
	}
}

// SkipWS consumes horizontal whitespace only; newlines stay put.
func (s *Scanner) SkipWS() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

// SkipEmptyLines consumes whole lines that are empty or whitespace-only.
// The cursor must sit at a line start.
func (s *Scanner) SkipEmptyLines() {
	for {
		line, ok := s.PeekLine()
		if !ok || strings.TrimSpace(line) != "" {
			return
		}
		// an unterminated whitespace-only tail ends the input
		if s.pos+len(line) >= len(s.src) {
			s.pos = len(s.src)
			return
		}
		s.pos += len(line) + 1
	}
}

// SkipEmptyLinesAndWS consumes blank lines plus the indentation of the
// first non-blank line.
func (s *Scanner) SkipEmptyLinesAndWS() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n':
			s.pos++
		default:
			return
		}
	}
}

// Match consumes prefix when the remaining input starts with it.
func (s *Scanner) Match(prefix string) bool {
	if strings.HasPrefix(s.src[s.pos:], prefix) {
		s.pos += len(prefix)
		return true
	}
	return false
}

// Take consumes ch when it is the next byte.
func (s *Scanner) Take(ch byte) bool {
	if s.pos < len(s.src) && s.src[s.pos] == ch {
		s.pos++
		return true
	}
	return false
}

// MatchRegexp matches re anchored at the cursor, consuming the matched
// span on success and returning its capture groups. A match that does not
// begin at the cursor counts as a miss and consumes nothing.
func (s *Scanner) MatchRegexp(re *regexp.Regexp) ([]string, bool) {
	loc := re.FindStringSubmatchIndex(s.src[s.pos:])
	if loc == nil || loc[0] != 0 {
		return nil, false
	}
	captures := make([]string, 0, len(loc)/2-1)
	for i := 2; i < len(loc); i += 2 {
		if loc[i] < 0 {
			captures = append(captures, "")
			continue
		}
		captures = append(captures, s.src[s.pos+loc[i]:s.pos+loc[i+1]])
	}
	s.pos += loc[1]
	return captures, true
}

// SeekThrough consumes up to and including delim and returns the text
// before it. When delim does not occur before end of input nothing is
// consumed.
func (s *Scanner) SeekThrough(delim byte) (string, bool) {
	idx := strings.IndexByte(s.src[s.pos:], delim)
	if idx < 0 {
		return "", false
	}
	out := s.src[s.pos : s.pos+idx]
	s.pos += idx + 1
	return out, true
}

// PrevLine returns the line preceding the one the cursor is on.
func (s *Scanner) PrevLine() (string, bool) {
	lineStart := s.lineStart(s.pos)
	if lineStart == 0 {
		return "", false
	}
	prevStart := s.lineStart(lineStart - 1)
	return s.src[prevStart : lineStart-1], true
}

// StepToPreviousLineStart moves the cursor to the start of the line before
// the current one. Call sites use it to hand back a line they looked past.
func (s *Scanner) StepToPreviousLineStart() {
	lineStart := s.lineStart(s.pos)
	if lineStart == 0 {
		s.pos = 0
		return
	}
	s.pos = s.lineStart(lineStart - 1)
}

func (s *Scanner) lineStart(pos int) int {
	if pos > len(s.src) {
		pos = len(s.src)
	}
	idx := strings.LastIndexByte(s.src[:pos], '\n')
	return idx + 1
}

// Context locates an offset for diagnostics: 1-based line and column plus
// the source lines covering the offending span.
type Context struct {
	Line    int
	Column  int
	Excerpt string
}

// ErrorContext computes the line/column of start and extracts the source
// lines from start through end. Pass a negative end for a single position.
func (s *Scanner) ErrorContext(start, end int) Context {
	if start < 0 {
		start = 0
	}
	if start > len(s.src) {
		start = len(s.src)
	}
	line := 1 + strings.Count(s.src[:start], "\n")
	col := start - s.lineStart(start) + 1

	if end < start {
		end = start
	}
	if end > len(s.src) {
		end = len(s.src)
	}
	excerptStart := s.lineStart(start)
	excerptEnd := end
	if idx := strings.IndexByte(s.src[end:], '\n'); idx >= 0 {
		excerptEnd = end + idx
	} else {
		excerptEnd = len(s.src)
	}
	return Context{
		Line:    line,
		Column:  col,
		Excerpt: s.src[excerptStart:excerptEnd],
	}
}
