// Package tokenize splits one line of raw REPL input into typed tokens:
// plain text, @mentions of Azure resources, and slash commands.
package tokenize

import "strings"

// Kind discriminates the Token variants.
type Kind int

const (
	KindText Kind = iota
	KindMention
	KindSlashCommand
)

// MentionKind identifies what an @mention refers to.
type MentionKind string

const (
	MentionSub  MentionKind = "sub"
	MentionRG   MentionKind = "rg"
	MentionVM   MentionKind = "vm"
	MentionAKS  MentionKind = "aks"
	MentionFile MentionKind = "file"
)

// Token is one span of the input line.
type Token struct {
	Kind Kind

	// Text is the literal span (KindText) or the raw mention text as typed
	// (KindMention, e.g. "@rg:prod-east").
	Text string

	// Mention fields (KindMention)
	Mention MentionKind
	Name    string // empty only for @sub

	// Slash command fields (KindSlashCommand)
	Command string // lowercased, without the leading slash
	Args    string // remainder of the line, trimmed
}

// namedKinds are the mention markers that take a :name argument.
var namedKinds = []MentionKind{MentionRG, MentionVM, MentionAKS, MentionFile}

// Tokenize scans line left to right and produces its token sequence.
//
// A line whose first non-space character is '/' is a slash command: the whole
// line becomes a single KindSlashCommand token. Otherwise the scanner emits
// KindMention tokens for well-formed markers (@sub, @rg:<name>, @vm:<name>,
// @aks:<name>, @file:<path>) and KindText tokens for everything between them,
// verbatim. Unrecognized @words stay plain text. Empty input yields nil.
// Tokenize never fails.
func Tokenize(line string) []Token {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "/") {
		name, args := splitCommand(trimmed)
		return []Token{{Kind: KindSlashCommand, Command: name, Args: args}}
	}

	var tokens []Token
	textStart := 0
	i := 0
	for i < len(line) {
		if line[i] != '@' {
			i++
			continue
		}
		tok, width := matchMention(line[i:])
		if width == 0 {
			i++
			continue
		}
		if i > textStart {
			tokens = append(tokens, Token{Kind: KindText, Text: line[textStart:i]})
		}
		tokens = append(tokens, tok)
		i += width
		textStart = i
	}
	if textStart < len(line) {
		tokens = append(tokens, Token{Kind: KindText, Text: line[textStart:]})
	}
	return tokens
}

// splitCommand parses "/name rest of line" into a lowercased name and the raw
// argument text. The name ends at the first whitespace of any kind.
func splitCommand(line string) (string, string) {
	rest := strings.TrimPrefix(line, "/")
	idx := strings.IndexAny(rest, " \t")
	if idx < 0 {
		return strings.ToLower(rest), ""
	}
	return strings.ToLower(rest[:idx]), strings.TrimSpace(rest[idx+1:])
}

// matchMention tries to match a mention marker at the start of s (which begins
// with '@'). Returns the zero Token and width 0 when s is not a well-formed
// marker.
func matchMention(s string) (Token, int) {
	// @sub takes no argument and must end at a word boundary so that prose
	// like "@subscription" stays literal text.
	if strings.HasPrefix(s, "@sub") {
		end := len("@sub")
		if end == len(s) || !isWordChar(s[end]) {
			return Token{Kind: KindMention, Mention: MentionSub, Text: "@sub"}, end
		}
	}

	for _, kind := range namedKinds {
		marker := "@" + string(kind) + ":"
		if !strings.HasPrefix(s, marker) {
			continue
		}
		name := s[len(marker):]
		if idx := strings.IndexAny(name, " \t"); idx >= 0 {
			name = name[:idx]
		}
		if name == "" {
			// "@rg:" with no name is not a mention
			return Token{}, 0
		}
		raw := marker + name
		return Token{Kind: KindMention, Mention: kind, Name: name, Text: raw}, len(raw)
	}

	return Token{}, 0
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Mentions returns only the mention tokens of a sequence, in order.
func Mentions(tokens []Token) []Token {
	var out []Token
	for _, t := range tokens {
		if t.Kind == KindMention {
			out = append(out, t)
		}
	}
	return out
}
