package format

import (
	"regexp"
	"strings"
)

type TokenType string

const (
	TokenTypeText    TokenType = "text"
	TokenTypeMention TokenType = "mention"
)

type Token struct {
	Text string
	Type TokenType
	Link string
}

type Mention struct {
	Id    string
	Label string
	Link  string
}

var mentionPattern = regexp.MustCompile(`[@#]\w+`)

// MentionTokens splits a comment into plain-text and mention tokens.
// @user and #tag tokens are matched against the supplied mention list by
// case-insensitive label to resolve their links; unresolved mentions keep
// an empty link.
func MentionTokens(text string, mentions []Mention) []Token {
	tokens := []Token{}
	last := 0

	for _, match := range mentionPattern.FindAllStringIndex(text, -1) {
		start, end := match[0], match[1]
		if last < start {
			tokens = append(tokens, Token{
				Text: text[last:start],
				Type: TokenTypeText,
			})
		}

		mentionText := text[start:end]
		label := strings.ToLower(mentionText[1:])
		link := ""
		for _, mention := range mentions {
			if strings.ToLower(mention.Label) == label {
				link = mention.Link
				break
			}
		}

		tokens = append(tokens, Token{
			Text: mentionText,
			Type: TokenTypeMention,
			Link: link,
		})
		last = end
	}

	if last < len(text) {
		tokens = append(tokens, Token{
			Text: text[last:],
			Type: TokenTypeText,
		})
	}

	return tokens
}
