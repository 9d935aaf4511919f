package index

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/syntax"
)

// Token is a lexed token anchored in the buffer. The anchors do not grow
// with text inserted at the token's edges.
type Token struct {
	Range buffer.AnchorRange
	Kind  syntax.TokenKind
}

// Resolve returns the token's byte range in snap.
func (t Token) Resolve(snap *buffer.Snapshot) buffer.Range {
	return t.Range.ToRange(snap)
}

// Summary implements sumtree.Item.
func (t Token) Summary(*buffer.Snapshot) tokenSummary {
	return tokenSummary{Range: rangeSummaryOf(t.Range), Kinds: syntax.KindSetOf(t.Kind)}
}

type tokenSummary struct {
	Range RangeSummary
	Kinds syntax.KindSet
}

func (s tokenSummary) Add(o tokenSummary, snap *buffer.Snapshot) tokenSummary {
	return tokenSummary{Range: s.Range.Add(o.Range, snap), Kinds: s.Kinds | o.Kinds}
}

func tokenRange(s tokenSummary) RangeSummary { return s.Range }

type tokenTree = sumtree.Tree[Token, tokenSummary, *buffer.Snapshot]

// TokenMapOption configures a TokenMap.
type TokenMapOption func(*TokenMap)

// WithLexer sets the lexer. The default is syntax.NewSimpleLexer().
func WithLexer(l syntax.Lexer) TokenMapOption {
	return func(m *TokenMap) {
		m.lexer = l
	}
}

// WithLogger sets the logger for sync diagnostics.
func WithLogger(logger *slog.Logger) TokenMapOption {
	return func(m *TokenMap) {
		m.logger = logger
	}
}

// TokenMap keeps the tokens of a buffer in sync with its edits. Tokens are
// sorted and never overlap.
//
// TokenMap is safe for concurrent use; queries resolve against the last
// synced snapshot.
type TokenMap struct {
	mu     sync.RWMutex
	lexer  syntax.Lexer
	logger *slog.Logger
	tokens tokenTree
	snap   *buffer.Snapshot
}

// NewTokenMap creates an empty token map.
func NewTokenMap(opts ...TokenMapOption) *TokenMap {
	m := &TokenMap{}
	for _, opt := range opts {
		opt(m)
	}
	if m.lexer == nil {
		m.lexer = syntax.NewSimpleLexer()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Lexer returns the configured lexer.
func (m *TokenMap) Lexer() syntax.Lexer {
	return m.lexer
}

// Rebuild tokenizes the whole snapshot. On error the previous tokens are
// kept.
func (m *TokenMap) Rebuild(snap *buffer.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuild(snap)
}

func (m *TokenMap) rebuild(snap *buffer.Snapshot) error {
	tokens, err := m.tokenize(snap, buffer.Range{Start: 0, End: snap.Len()})
	if err != nil {
		return err
	}
	m.tokens = sumtree.FromItems[Token, tokenSummary](tokens, snap)
	m.snap = snap
	m.logger.Debug("token map rebuilt", "lexer", m.lexer.Name(), "version", snap.Version(), "tokens", len(tokens))
	return nil
}

// Sync applies the patches that led to snap. Every token touching an
// edited region is dropped and the region, widened to whole lines and to
// any token it touches, is tokenized again.
//
// Snapshots older than or equal to the synced one are ignored. If the lexer
// fails the map is left unchanged and the error wraps ErrTokenize.
func (m *TokenMap) Sync(snap *buffer.Snapshot, patches []buffer.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap == nil {
		return m.rebuild(snap)
	}
	if snap.ID() != m.snap.ID() {
		return fmt.Errorf("sync token map: %w", ErrForeignSnapshot)
	}
	if snap.Version() <= m.snap.Version() {
		m.logger.Debug("token map sync ignored stale snapshot",
			"version", snap.Version(), "synced", m.snap.Version())
		return nil
	}

	spans := m.dirtySpans(snap, patches)
	replacements := make([][]Token, len(spans))
	for i, span := range spans {
		tokens, err := m.tokenize(snap, span)
		if err != nil {
			return err
		}
		replacements[i] = tokens
	}

	// Later spans first so earlier indices stay put.
	tokens := m.tokens
	for i := len(spans) - 1; i >= 0; i-- {
		from, to := touching(tokens, spans[i], snap)
		tokens = tokens.Replace(from, to, replacements[i], snap)
	}
	m.tokens = tokens
	m.snap = snap
	m.logger.Debug("token map synced",
		"version", snap.Version(), "patches", len(patches), "spans", len(spans), "tokens", tokens.Len())
	return nil
}

// dirtySpans returns the sorted, disjoint regions to retokenize.
func (m *TokenMap) dirtySpans(snap *buffer.Snapshot, patches []buffer.Patch) []buffer.Range {
	var spans []buffer.Range
	for _, p := range patches {
		span := m.widen(snap, p.New)
		if n := len(spans); n > 0 && spans[n-1].Touches(span) {
			spans[n-1] = spans[n-1].Union(span)
			continue
		}
		spans = append(spans, span)
	}
	return spans
}

// widen grows r to whole lines and to every token touching it until
// neither adds anything.
func (m *TokenMap) widen(snap *buffer.Snapshot, r buffer.Range) buffer.Range {
	for {
		grown := buffer.Range{
			Start: snap.LineStartOffset(snap.OffsetToPoint(r.Start).Line),
			End:   snap.LineEndOffset(snap.OffsetToPoint(r.End).Line),
		}
		from, to := touching(m.tokens, grown, snap)
		if from < to {
			first, _ := m.tokens.Get(from)
			last, _ := m.tokens.Get(to - 1)
			grown = grown.Union(buffer.Range{
				Start: snap.ToOffset(first.Range.Start),
				End:   snap.ToOffset(last.Range.End),
			})
		}
		if grown == r {
			return r
		}
		r = grown
	}
}

// touching returns the index range of tokens with end >= r.Start and
// start <= r.End.
func touching(tokens tokenTree, r buffer.Range, snap *buffer.Snapshot) (int, int) {
	c := tokens.Cursor(snap)
	c.Seek(endsAfter(r.Start, tokenRange), sumtree.Left)
	from := c.Index()
	c.Seek(startsAfter(r.End, tokenRange), sumtree.Right)
	return from, max(from, c.Index())
}

func (m *TokenMap) tokenize(snap *buffer.Snapshot, r buffer.Range) ([]Token, error) {
	lexed, err := m.lexer.Tokenize(snap.TextForRange(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %s at %s: %w", ErrTokenize, m.lexer.Name(), r, err)
	}
	tokens := make([]Token, len(lexed))
	for i, t := range lexed {
		tokens[i] = Token{
			Range: buffer.AnchorRange{
				Start: snap.AnchorAfter(r.Start + t.Start),
				End:   snap.AnchorBefore(r.Start + t.End),
			},
			Kind: t.Kind,
		}
	}
	return tokens, nil
}

// Snapshot returns the last synced snapshot, or nil.
func (m *TokenMap) Snapshot() *buffer.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Version returns the version of the last synced snapshot.
func (m *TokenMap) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return 0
	}
	return m.snap.Version()
}

// Len returns the number of tokens.
func (m *TokenMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens.Len()
}

// All returns every token in order.
func (m *TokenMap) All() []Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens.Items()
}

// TokenAtOffset returns the token with start <= off < end.
func (m *TokenMap) TokenAtOffset(off buffer.ByteOffset) (Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return Token{}, false
	}
	c := m.tokens.Cursor(m.snap)
	if !c.Seek(endsAfter(off, tokenRange), sumtree.Right) {
		return Token{}, false
	}
	t, _ := c.Item()
	if m.snap.ToOffset(t.Range.Start) > off {
		return Token{}, false
	}
	return t, true
}

// TokensInRange returns the tokens overlapping r, in order.
func (m *TokenMap) TokensInRange(r buffer.Range) []Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil
	}
	var out []Token
	c := m.tokens.Cursor(m.snap)
	if !c.Seek(endsAfter(r.Start, tokenRange), sumtree.Right) {
		return nil
	}
	for {
		t, ok := c.Item()
		if !ok || m.snap.ToOffset(t.Range.Start) >= r.End {
			return out
		}
		out = append(out, t)
		c.Next()
	}
}

// TokensOfKind returns the tokens of any of the given kinds, in order.
// Subtrees holding none of them are skipped.
func (m *TokenMap) TokensOfKind(kinds ...syntax.TokenKind) []Token {
	want := syntax.KindSetOf(kinds...)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Token
	m.tokens.Walk(
		func(s tokenSummary) bool { return s.Kinds&want != 0 },
		func(_ int, t Token) bool {
			out = append(out, t)
			return true
		},
	)
	return out
}

// ErrorTokens returns the tokens the lexer could not classify.
func (m *TokenMap) ErrorTokens() []Token {
	return m.TokensOfKind(syntax.TokenUnknown)
}
