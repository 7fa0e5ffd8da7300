/*
Copyright (C) 2026 Munazzim Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package qalib

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// evalOccurrences evaluates the arithmetic allowed inside a task's
// occurrence brackets: numbers, + - * /, floor division //, unary
// signs, and parentheses. The result must be positive and is truncated
// to an integer.
func evalOccurrences(raw string) (int, error) {
	p := &exprParser{input: raw}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, invalidExpr(raw)
	}
	if value <= 0 {
		return 0, &ParseError{Reason: "Occurrences must be positive"}
	}
	return int(value), nil
}

func invalidExpr(raw string) *ParseError {
	return &ParseError{Reason: fmt.Sprintf("Invalid occurrences expression '%s'", raw)}
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

// parseExpr handles + and -.
func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

// parseTerm handles *, / and floor division //.
func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		floor := false
		if op == '/' && p.peek() == '/' {
			p.pos++
			floor = true
		}
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch {
		case op == '*':
			left *= right
		case right == 0:
			return 0, invalidExpr(p.input)
		case floor:
			left = math.Floor(left / right)
		default:
			left /= right
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpace()
	switch p.peek() {
	case '+':
		p.pos++
		return p.parseUnary()
	case '-':
		p.pos++
		value, err := p.parseUnary()
		return -value, err
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, invalidExpr(p.input)
		}
		p.pos++
		return value, nil
	}
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	token := p.input[start:p.pos]
	if token == "" {
		return 0, invalidExpr(p.input)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil {
		return 0, invalidExpr(p.input)
	}
	return value, nil
}
