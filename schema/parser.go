package schema

import (
	"fmt"
	"strconv"
)

// Parse parses the contents of a single .lcm source file.
func Parse(src string) (*File, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseFile()
}

type parser struct {
	lex        *lexer
	tok        token
	lastComment string
}

func (p *parser) advance() error {
	for {
		t, err := p.lex.next()
		if err != nil {
			return err
		}
		if t.kind == tokComment {
			p.lastComment = t.text
			continue
		}
		p.tok = t
		return nil
	}
}

func (p *parser) takeComment() string {
	c := p.lastComment
	p.lastComment = ""
	return c
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, fmt.Errorf("schema: line %d: expected %s, found %q", p.tok.line, what, p.tok.text)
	}
	t := p.tok
	return t, p.advance()
}

func (p *parser) parseFile() (*File, error) {
	f := &File{}

	if p.tok.kind == tokIdent && p.tok.text == "package" {
		ns, err := p.parsePackage()
		if err != nil {
			return nil, err
		}
		f.Namespace = ns
	}

	for p.tok.kind != tokEOF {
		if p.tok.kind != tokIdent || p.tok.text != "struct" {
			return nil, fmt.Errorf("schema: line %d: expected struct, found %q", p.tok.line, p.tok.text)
		}
		rec, err := p.parseStruct()
		if err != nil {
			return nil, err
		}
		f.Records = append(f.Records, rec)
	}

	return f, nil
}

func (p *parser) parsePackage() ([]string, error) {
	if err := p.advance(); err != nil { // consume 'package'
		return nil, err
	}
	name, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return name, nil
}

func (p *parser) parseDottedName() ([]string, error) {
	var parts []string
	first, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return nil, err
	}
	parts = append(parts, first.text)
	for p.tok.kind == tokDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		part, err := p.expect(tokIdent, "identifier")
		if err != nil {
			return nil, err
		}
		parts = append(parts, part.text)
	}
	return parts, nil
}

func (p *parser) parseStruct() (Record, error) {
	comment := p.takeComment()
	if err := p.advance(); err != nil { // consume 'struct'
		return Record{}, err
	}
	name, err := p.expect(tokIdent, "struct name")
	if err != nil {
		return Record{}, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return Record{}, err
	}

	rec := Record{Comment: comment, Name: name.text}

	for p.tok.kind != tokRBrace {
		if p.tok.kind == tokIdent && p.tok.text == "const" {
			consts, err := p.parseConstantGroup()
			if err != nil {
				return Record{}, err
			}
			rec.Constants = append(rec.Constants, consts...)
			continue
		}

		field, err := p.parseField()
		if err != nil {
			return Record{}, err
		}
		rec.Fields = append(rec.Fields, field)
	}

	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return Record{}, err
	}

	return rec, nil
}

func (p *parser) parseField() (Field, error) {
	comment := p.takeComment()

	ty, err := p.parseType()
	if err != nil {
		return Field{}, err
	}

	name, err := p.expect(tokIdent, "field name")
	if err != nil {
		return Field{}, err
	}

	var dims []Dimension
	for p.tok.kind == tokLBracket {
		if err := p.advance(); err != nil {
			return Field{}, err
		}
		var dim Dimension
		switch p.tok.kind {
		case tokNumber:
			dim = Dimension{Mode: DimFixed, Text: p.tok.text}
			if err := p.advance(); err != nil {
				return Field{}, err
			}
		case tokIdent:
			dim = Dimension{Mode: DimVariable, Text: p.tok.text}
			if err := p.advance(); err != nil {
				return Field{}, err
			}
		default:
			return Field{}, fmt.Errorf("schema: line %d: expected array dimension, found %q", p.tok.line, p.tok.text)
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return Field{}, err
		}
		dims = append(dims, dim)
	}

	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return Field{}, err
	}

	return Field{Comment: comment, Name: name.text, Type: ty, Dims: dims}, nil
}

func (p *parser) parseType() (Type, error) {
	name, err := p.parseDottedName()
	if err != nil {
		return Type{}, err
	}

	if len(name) == 1 {
		if prim, ok := primitiveNames[name[0]]; ok {
			return Type{Primitive: prim}, nil
		}
	}

	return Type{
		IsStruct:   true,
		Namespace:  name[:len(name)-1],
		StructName: name[len(name)-1],
	}, nil
}

var primitiveNames = map[string]PrimitiveType{
	"int8_t":  Int8,
	"int16_t": Int16,
	"int32_t": Int32,
	"int64_t": Int64,
	"float":   Float,
	"double":  Double,
	"string":  String,
	"boolean": Boolean,
	"byte":    Byte,
}

func (p *parser) parseConstantGroup() ([]Constant, error) {
	comment := p.takeComment()
	if err := p.advance(); err != nil { // consume 'const'
		return nil, err
	}

	tyName, err := p.expect(tokIdent, "constant type")
	if err != nil {
		return nil, err
	}
	prim, ok := primitiveNames[tyName.text]
	if !ok {
		return nil, fmt.Errorf("schema: line %d: %q is not a valid constant type", tyName.line, tyName.text)
	}

	var consts []Constant
	for {
		name, err := p.expect(tokIdent, "constant name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokEquals, "'='"); err != nil {
			return nil, err
		}

		var valueTok token
		if p.tok.kind == tokNumber {
			valueTok = p.tok
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			return nil, fmt.Errorf("schema: line %d: expected constant literal, found %q", p.tok.line, p.tok.text)
		}
		if err := validateNumber(valueTok.text, prim); err != nil {
			return nil, fmt.Errorf("schema: line %d: constant %q: %w", valueTok.line, name.text, err)
		}

		consts = append(consts, Constant{Comment: comment, Name: name.text, Type: prim, Value: valueTok.text})
		comment = ""

		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return nil, err
	}

	return consts, nil
}

// validateNumber checks that a constant's literal text actually parses as
// its declared primitive type's Go equivalent, so a malformed literal is
// rejected at parse time rather than surfacing later as a codegen panic.
func validateNumber(text string, prim PrimitiveType) error {
	switch prim {
	case Float, Double:
		_, err := strconv.ParseFloat(text, 64)
		return err
	default:
		_, err := strconv.ParseInt(text, 0, 64)
		return err
	}
}
