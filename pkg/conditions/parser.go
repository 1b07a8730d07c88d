package conditions

import (
	"strconv"
	"strings"
)

// parser is a recursive-descent parser for the restricted condition grammar:
//
//	expr       := or
//	or         := and ( "or" and )*
//	and        := not ( "and" not )*
//	not        := "not" not | comparison
//	comparison := additive ( ("==" | "!=" | "<" | "<=" | ">" | ">=") additive )?
//	additive   := term ( ("+" | "-") term )*
//	term       := unary ( ("*" | "/" | "%") unary )*
//	unary      := "-" unary | postfix
//	postfix    := primary ( "." name ( "(" args? ")" )? )*
//	primary    := number | string | "true" | "false" | name | "(" expr ")"
//
// Bare function calls, indexing, assignment and every other construct the
// grammar cannot express are rejected with UnsafeExpressionError.
type parser struct {
	tokens []token
	index  int
}

func parse(input string) (exprNode, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.peek().kind != tokenEOF {
		return nil, p.unexpected(p.peek())
	}

	return node, nil
}

func (p *parser) peek() token {
	return p.tokens[p.index]
}

func (p *parser) next() token {
	tok := p.tokens[p.index]
	if tok.kind != tokenEOF {
		p.index++
	}

	return tok
}

func (p *parser) acceptKeyword(word string) bool {
	if p.peek().kind == tokenKeyword && p.peek().text == word {
		p.next()

		return true
	}

	return false
}

func (p *parser) acceptOperator(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.kind != tokenOperator {
		return "", false
	}

	for _, op := range ops {
		if tok.text == op {
			p.next()

			return op, true
		}
	}

	return "", false
}

func (p *parser) unexpected(tok token) error {
	if tok.kind == tokenEOF {
		return &UnsafeExpressionError{Construct: "unexpected end of expression", Position: tok.pos}
	}

	return &UnsafeExpressionError{Construct: "unexpected token " + strconv.Quote(tok.text), Position: tok.pos}
}

func (p *parser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.acceptKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = &boolNode{pos: left.position(), op: "or", left: left, right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (exprNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.acceptKeyword("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		left = &boolNode{pos: left.position(), op: "and", left: left, right: right}
	}

	return left, nil
}

func (p *parser) parseNot() (exprNode, error) {
	pos := p.peek().pos
	if p.acceptKeyword("not") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return &unaryNode{pos: pos, op: "not", operand: operand}, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (exprNode, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if op, ok := p.acceptOperator("==", "!=", "<=", ">=", "<", ">"); ok {
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		return &compareNode{pos: left.position(), op: op, left: left, right: right}, nil
	}

	return left, nil
}

func (p *parser) parseAdditive() (exprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.acceptOperator("+", "-")
		if !ok {
			return left, nil
		}

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		left = &binaryNode{pos: left.position(), op: op, left: left, right: right}
	}
}

func (p *parser) parseTerm() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.acceptOperator("*", "/", "%")
		if !ok {
			return left, nil
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &binaryNode{pos: left.position(), op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (exprNode, error) {
	if op, ok := p.acceptOperator("-"); ok {
		pos := p.peek().pos

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &unaryNode{pos: pos, op: op, operand: operand}, nil
	}

	return p.parsePostfix()
}

func (p *parser) parsePostfix() (exprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		if p.peek().kind == tokenLParen {
			// A call not preceded by a dotted name is a bare function call,
			// which the sandbox forbids outright.
			return nil, &UnsafeExpressionError{Construct: "function call", Position: p.peek().pos}
		}

		if p.peek().kind != tokenDot {
			return node, nil
		}

		p.next()

		nameTok := p.next()
		if nameTok.kind != tokenName {
			return nil, p.unexpected(nameTok)
		}

		if p.peek().kind == tokenLParen {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}

			node = &callNode{pos: nameTok.pos, target: node, method: nameTok.text, args: args}

			continue
		}

		node = &attrNode{pos: nameTok.pos, target: node, name: nameTok.text}
	}
}

func (p *parser) parseArgs() ([]exprNode, error) {
	p.next() // consume "("

	args := make([]exprNode, 0, 1)

	if p.peek().kind == tokenRParen {
		p.next()

		return args, nil
	}

	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		tok := p.next()

		switch tok.kind {
		case tokenRParen:
			return args, nil
		case tokenComma:
			continue
		default:
			return nil, p.unexpected(tok)
		}
	}
}

func (p *parser) parsePrimary() (exprNode, error) {
	tok := p.next()

	switch tok.kind {
	case tokenNumber:
		if strings.Contains(tok.text, ".") {
			value, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return nil, &UnsafeExpressionError{Construct: "malformed number " + strconv.Quote(tok.text), Position: tok.pos}
			}

			return &literalNode{pos: tok.pos, value: value}, nil
		}

		value, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, &UnsafeExpressionError{Construct: "malformed number " + strconv.Quote(tok.text), Position: tok.pos}
		}

		return &literalNode{pos: tok.pos, value: value}, nil
	case tokenString:
		return &literalNode{pos: tok.pos, value: tok.text}, nil
	case tokenKeyword:
		switch tok.text {
		case "true":
			return &literalNode{pos: tok.pos, value: true}, nil
		case "false":
			return &literalNode{pos: tok.pos, value: false}, nil
		default:
			return nil, p.unexpected(tok)
		}
	case tokenName:
		return &nameNode{pos: tok.pos, name: tok.text}, nil
	case tokenLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if closing := p.next(); closing.kind != tokenRParen {
			return nil, p.unexpected(closing)
		}

		return node, nil
	default:
		return nil, p.unexpected(tok)
	}
}
