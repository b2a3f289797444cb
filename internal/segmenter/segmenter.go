// Package segmenter splits control bodies into token-bounded chunks
// with bounded overlap between neighbours.
package segmenter

import (
	"regexp"
	"strings"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

// Default chunking bounds, in estimated tokens.
const (
	DefaultMinTokens  = 600
	DefaultMaxTokens  = 1200
	DefaultOverlapMin = 80
	DefaultOverlapMax = 120
)

// maxHeadingChars is the heading heuristic's length cutoff.
const maxHeadingChars = 100

// headingWords are terms whose presence marks a short first line as a
// heading.
var headingWords = []string{"control", "policy", "requirement"}

// controlCodePattern matches identifiers like "A.5.1", "AC-2", "CC6.1".
var controlCodePattern = regexp.MustCompile(`^[A-Za-z]{1,6}[-.]?\d+(\.\d+)*\b`)

// Segmenter splits a control's text into chunks. Re-running it on an
// unchanged control yields a byte-identical chunk set.
type Segmenter struct {
	minTokens        int
	maxTokens        int
	overlapMin       int
	overlapMax       int
	preserveHeadings bool
	preserveIDs      bool
	estimator        TokenEstimator
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithMinTokens sets the minimum chunk size in estimated tokens.
func WithMinTokens(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.minTokens = n
		}
	}
}

// WithMaxTokens sets the maximum chunk size in estimated tokens.
func WithMaxTokens(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithOverlapBounds sets the overlap token range. The seed target is
// the midpoint of the range.
func WithOverlapBounds(minTokens, maxTokens int) Option {
	return func(s *Segmenter) {
		if minTokens >= 0 && maxTokens >= minTokens {
			s.overlapMin = minTokens
			s.overlapMax = maxTokens
		}
	}
}

// WithHeadingPreservation toggles heading extraction. When disabled, a
// heading-looking first line is treated as ordinary body text.
func WithHeadingPreservation(enabled bool) Option {
	return func(s *Segmenter) { s.preserveHeadings = enabled }
}

// WithFrameworkIDPreservation toggles carrying the detected heading on
// every chunk of a control rather than just the first, so lexical
// matching on control codes works from any chunk.
func WithFrameworkIDPreservation(enabled bool) Option {
	return func(s *Segmenter) { s.preserveIDs = enabled }
}

// WithTokenEstimator substitutes the token estimation strategy.
func WithTokenEstimator(e TokenEstimator) Option {
	return func(s *Segmenter) {
		if e != nil {
			s.estimator = e
		}
	}
}

// New creates a segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		minTokens:        DefaultMinTokens,
		maxTokens:        DefaultMaxTokens,
		overlapMin:       DefaultOverlapMin,
		overlapMax:       DefaultOverlapMax,
		preserveHeadings: true,
		preserveIDs:      true,
		estimator:        CharRatioEstimator{},
	}

	for _, opt := range opts {
		opt(s)
	}

	// Keep the bounds coherent
	if s.maxTokens < s.minTokens {
		s.maxTokens = s.minTokens
	}

	return s
}

// sentence pairs a sentence with its estimated token count so the
// accumulation loop estimates each sentence exactly once.
type sentence struct {
	text   string
	tokens int
}

// Segment splits the control's body into ordered chunks. An empty or
// whitespace-only body produces no chunks; the caller logs and moves on.
func (s *Segmenter) Segment(control domain.ControlRecord) []domain.Chunk {
	body := strings.TrimSpace(control.Body)
	if body == "" {
		return nil
	}

	heading, rest := s.extractHeading(body)
	if rest == "" && heading != "" {
		// Heading-only body: the heading is the whole chunk.
		rest = heading
		heading = ""
	}

	sentences := s.splitSentences(rest)
	if len(sentences) == 0 {
		return nil
	}

	contents := s.accumulate(sentences)
	if len(contents) == 0 {
		return nil
	}

	if heading != "" {
		contents[0] = heading + "\n" + contents[0]
	}

	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunkHeading := ""
		if heading != "" && (i == 0 || s.preserveIDs) {
			chunkHeading = heading
		}
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(control.Framework, control.ControlID, i),
			ControlID:  control.ControlID,
			Framework:  control.Framework,
			Heading:    chunkHeading,
			Content:    content,
			TokenCount: s.estimator.Estimate(content),
			Index:      i,
		}
	}

	s.recordOverlaps(chunks)
	return chunks
}

// extractHeading pulls a short heading-like first line off the body.
// Returns the heading (or "") and the remaining text.
func (s *Segmenter) extractHeading(body string) (string, string) {
	if !s.preserveHeadings {
		return "", body
	}

	firstLine := body
	rest := ""
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		firstLine = strings.TrimSpace(body[:idx])
		rest = strings.TrimSpace(body[idx+1:])
	}

	if firstLine == "" || len(firstLine) >= maxHeadingChars {
		return "", body
	}
	if !looksLikeHeading(firstLine) {
		return "", body
	}
	return firstLine, rest
}

// looksLikeHeading reports whether a line matches the heading heuristic:
// it mentions a control vocabulary word or starts with a control code.
func looksLikeHeading(line string) bool {
	lower := strings.ToLower(line)
	for _, w := range headingWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return controlCodePattern.MatchString(line)
}

// splitSentences splits text on terminal punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func (s *Segmenter) splitSentences(text string) []sentence {
	var sentences []sentence
	var current strings.Builder

	flush := func() {
		t := strings.TrimSpace(current.String())
		if t != "" {
			sentences = append(sentences, sentence{text: t, tokens: s.estimator.Estimate(t)})
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' || runes[i+1] == '\r' {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// accumulate packs sentences into chunk contents. A chunk is emitted
// when the next sentence would push it past maxTokens and it already
// meets minTokens; the minimum-size guarantee takes precedence over the
// maximum bound, so a still-small buffer absorbs the sentence even past
// maxTokens. The budget is estimated over the joined buffer, separator
// spaces included, so the emit decision and the recorded token count of
// the resulting chunk use the same arithmetic. Each emitted chunk seeds
// the next buffer with the maximal sentence suffix fitting the overlap
// midpoint.
func (s *Segmenter) accumulate(sentences []sentence) []string {
	overlapTarget := (s.overlapMin + s.overlapMax) / 2

	var contents []string
	var buf []sentence
	joined := ""
	seedLen := 0

	for _, sn := range sentences {
		candidate := joinNext(joined, sn.text)
		if joined != "" &&
			s.estimator.Estimate(candidate) > s.maxTokens &&
			s.estimator.Estimate(joined) >= s.minTokens {
			contents = append(contents, joined)
			buf = overlapSeed(buf, overlapTarget)
			seedLen = len(buf)
			joined = joinSentences(buf)
			candidate = joinNext(joined, sn.text)
		}
		buf = append(buf, sn)
		joined = candidate
	}

	// The trailing buffer is emitted when it carries content beyond the
	// overlap seed, or when it is the control's sole buffer. A buffer
	// that is nothing but seed already lives in the previous chunk.
	if len(buf) > seedLen || len(contents) == 0 {
		contents = append(contents, joined)
	}

	return contents
}

// joinNext appends a sentence to already-joined buffer content.
func joinNext(joined, next string) string {
	if joined == "" {
		return next
	}
	return joined + " " + next
}

func joinSentences(buf []sentence) string {
	parts := make([]string, len(buf))
	for i, sn := range buf {
		parts[i] = sn.text
	}
	return strings.Join(parts, " ")
}

// overlapSeed returns the maximal suffix of buf whose total token count
// does not exceed target.
func overlapSeed(buf []sentence, target int) []sentence {
	tokens := 0
	start := len(buf)
	for start > 0 {
		next := tokens + buf[start-1].tokens
		if next > target {
			break
		}
		tokens = next
		start--
	}
	seed := make([]sentence, len(buf)-start)
	copy(seed, buf[start:])
	return seed
}

// recordOverlaps computes pairwise overlap token counts between
// adjacent chunks: the longest word sequence that is simultaneously a
// suffix of chunk i and a prefix of chunk i+1.
func (s *Segmenter) recordOverlaps(chunks []domain.Chunk) {
	for i := 0; i+1 < len(chunks); i++ {
		words := overlapWords(
			strings.Fields(chunks[i].Content),
			strings.Fields(chunks[i+1].Content),
		)
		if len(words) == 0 {
			continue
		}
		tokens := s.estimator.Estimate(strings.Join(words, " "))
		chunks[i].OverlapTokensNext = tokens
		chunks[i+1].OverlapTokensPrev = tokens
	}
}

// overlapWords finds the longest word sequence that is a suffix of a
// and a prefix of b.
func overlapWords(a, b []string) []string {
	maxLen := len(a)
	if len(b) < maxLen {
		maxLen = len(b)
	}
	for l := maxLen; l > 0; l-- {
		if wordsEqual(a[len(a)-l:], b[:l]) {
			return b[:l]
		}
	}
	return nil
}

func wordsEqual(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
