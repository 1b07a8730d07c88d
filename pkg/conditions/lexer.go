package conditions

import (
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenName
	tokenNumber
	tokenString
	tokenKeyword // and, or, not, true, false
	tokenOperator
	tokenDot
	tokenComma
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"true":  true,
	"false": true,
}

// lex tokenizes a condition expression. Anything outside the restricted
// grammar's alphabet is rejected up front as an unsafe construct.
func lex(input string) ([]token, error) {
	tokens := make([]token, 0, 16)
	i := 0

	for i < len(input) {
		ch := rune(input[i])

		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case ch == '.':
			tokens = append(tokens, token{kind: tokenDot, text: ".", pos: i})
			i++
		case ch == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", pos: i})
			i++
		case ch == '\'' || ch == '"':
			text, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, token{kind: tokenString, text: text, pos: i})
			i = next
		case unicode.IsDigit(ch):
			start := i
			for i < len(input) && (unicode.IsDigit(rune(input[i])) || input[i] == '.') {
				i++
			}

			tokens = append(tokens, token{kind: tokenNumber, text: input[start:i], pos: start})
		case unicode.IsLetter(ch) || ch == '_':
			start := i
			for i < len(input) && (unicode.IsLetter(rune(input[i])) || unicode.IsDigit(rune(input[i])) || input[i] == '_') {
				i++
			}

			word := input[start:i]
			if keywords[strings.ToLower(word)] && !keywords[word] {
				// Accept True/False/AND etc. in their canonical spelling only
				// when they match a keyword case-insensitively.
				word = strings.ToLower(word)
			}

			kind := tokenName
			if keywords[word] {
				kind = tokenKeyword
			}

			tokens = append(tokens, token{kind: kind, text: word, pos: start})
		case strings.ContainsRune("=!<>+-*/%", ch):
			start := i
			i++

			if i < len(input) && input[i] == '=' && strings.ContainsRune("=!<>", ch) {
				i++
			}

			op := input[start:i]
			if op == "=" || op == "!" {
				return nil, &UnsafeExpressionError{Construct: "operator " + strconv.Quote(op), Position: start}
			}

			tokens = append(tokens, token{kind: tokenOperator, text: op, pos: start})
		default:
			return nil, &UnsafeExpressionError{Construct: "character " + strconv.Quote(string(ch)), Position: i}
		}
	}

	tokens = append(tokens, token{kind: tokenEOF, pos: len(input)})

	return tokens, nil
}

func lexString(input string, start int) (string, int, error) {
	quote := input[start]

	var sb strings.Builder

	i := start + 1
	for i < len(input) {
		ch := input[i]
		if ch == quote {
			return sb.String(), i + 1, nil
		}

		if ch == '\\' && i+1 < len(input) {
			i++
			ch = input[i]
		}

		sb.WriteByte(ch)
		i++
	}

	return "", 0, &UnsafeExpressionError{Construct: "unterminated string literal", Position: start}
}
