// Package parser implements a recursive-descent parser that converts a sigl
// DSL token stream into a schema AST.
package parser

import (
	"fmt"

	"sigl/internal/ast"
	"sigl/internal/lexer"
)

// Parser consumes a token stream with a single token of lookahead.
type Parser struct {
	tokens []ast.Token
	pos    int
}

// Parse tokenizes and parses DSL source text in one call.
func Parse(source string) (*ast.Schema, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return New(tokens).ParseSchema()
}

// New creates a Parser over an already-tokenized stream.
func New(tokens []ast.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) cur() ast.Token {
	if p.pos >= len(p.tokens) {
		return ast.Token{Kind: ast.KindEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() ast.Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind ast.Kind) (ast.Token, error) {
	tok := p.cur()
	if tok.Kind != kind {
		return tok, fmt.Errorf("parser: expected %s but found %s %q at line %d, column %d",
			kind, tok.Kind, tok.Value, tok.Line, tok.Column)
	}
	return p.advance(), nil
}

// ParseSchema parses the entire token stream into a Schema.
func (p *Parser) ParseSchema() (*ast.Schema, error) {
	schema := &ast.Schema{}

	for p.cur().Kind != ast.KindEOF {
		switch p.cur().Kind {
		case ast.KindKeywordModel:
			model, err := p.parseModel()
			if err != nil {
				return nil, err
			}
			schema.Models = append(schema.Models, model)
		case ast.KindRawSQL:
			tok := p.advance()
			schema.RawSQLs = append(schema.RawSQLs, &ast.RawSQL{Text: tok.Value, Line: tok.Line})
		default:
			tok := p.cur()
			return nil, fmt.Errorf("parser: unexpected token %s %q at line %d, column %d", tok.Kind, tok.Value, tok.Line, tok.Column)
		}
	}

	return schema, nil
}

func (p *Parser) parseModel() (*ast.Model, error) {
	modelTok := p.advance() // "model"

	nameTok, err := p.expect(ast.KindIdent)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(ast.KindLBrace); err != nil {
		return nil, err
	}

	model := &ast.Model{Name: nameTok.Value, Line: modelTok.Line, Column: modelTok.Column}

	for p.cur().Kind != ast.KindRBrace {
		if p.cur().Kind == ast.KindEOF {
			return nil, fmt.Errorf("parser: unexpected end of input inside model %q", model.Name)
		}
		col, err := p.parseColumn()
		if err != nil {
			return nil, err
		}
		model.Columns = append(model.Columns, col)
	}

	if _, err := p.expect(ast.KindRBrace); err != nil {
		return nil, err
	}

	if len(model.Columns) == 0 {
		return nil, fmt.Errorf("parser: model must have at least one column at line %d, column %d", model.Line, model.Column)
	}

	return model, nil
}

func (p *Parser) parseColumn() (*ast.Column, error) {
	nameTok, err := p.expect(ast.KindIdent)
	if err != nil {
		return nil, err
	}

	typeTok, err := p.expect(ast.KindType)
	if err != nil {
		return nil, err
	}

	col := &ast.Column{Name: nameTok.Value, Type: typeTok.Value, Line: nameTok.Line, ColumnPos: nameTok.Column}

	if p.cur().Kind == ast.KindLParen {
		args, hasArgs, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		col.TypeArgs = args
		col.HasArgs = hasArgs
	}

	seen := map[string]bool{}
	for p.cur().Kind == ast.KindDecoratorName {
		dec, err := p.parseDecorator()
		if err != nil {
			return nil, err
		}
		if seen[dec.Name] {
			return nil, fmt.Errorf("parser: duplicate decorator %q on column %q at line %d, column %d",
				dec.Name, col.Name, dec.Line, dec.Column)
		}
		seen[dec.Name] = true
		col.Decorators = append(col.Decorators, dec)
	}

	return col, nil
}

func (p *Parser) parseDecorator() (*ast.Decorator, error) {
	tok := p.advance()
	dec := &ast.Decorator{Name: tok.Value, Line: tok.Line, Column: tok.Column}

	if p.cur().Kind == ast.KindLParen {
		args, hasArgs, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		dec.Args = args
		dec.HasArgs = hasArgs
	}

	return dec, nil
}

// parseArgList parses a parenthesized, possibly-empty, comma-separated
// argument list. hasArgs is true whenever parentheses were present at all,
// even for an empty "()".
func (p *Parser) parseArgList() ([]string, bool, error) {
	if _, err := p.expect(ast.KindLParen); err != nil {
		return nil, false, err
	}

	var args []string
	for p.cur().Kind != ast.KindRParen {
		arg, err := p.parseArg()
		if err != nil {
			return nil, false, err
		}
		args = append(args, arg)

		if p.cur().Kind == ast.KindComma {
			p.advance()
			if tok := p.cur(); tok.Kind == ast.KindRParen {
				return nil, false, fmt.Errorf("parser: unexpected %s after ',' in argument list at line %d, column %d",
					tok.Kind, tok.Line, tok.Column)
			}
			continue
		}
		break
	}

	if _, err := p.expect(ast.KindRParen); err != nil {
		return nil, false, err
	}

	return args, true, nil
}

func (p *Parser) parseArg() (string, error) {
	tok := p.cur()
	switch tok.Kind {
	case ast.KindString:
		p.advance()
		return tok.Value, nil
	case ast.KindNumber:
		p.advance()
		return tok.Value, nil
	case ast.KindIdent, ast.KindType:
		p.advance()
		value := tok.Value
		if p.cur().Kind == ast.KindDot {
			p.advance()
			field, err := p.expect(ast.KindIdent)
			if err != nil {
				return "", err
			}
			value = value + "." + field.Value
		}
		return value, nil
	default:
		return "", fmt.Errorf("parser: unexpected token %s %q in argument list at line %d, column %d",
			tok.Kind, tok.Value, tok.Line, tok.Column)
	}
}
