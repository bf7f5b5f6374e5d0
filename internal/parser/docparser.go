package parser

import (
	"strconv"
	"strings"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/token"
)

// parseDocLineTags consumes everything the lexer has queued for the
// current `---`/`--[[` line (which, per the four-mode state machine, ends
// when the lexer itself pops back to Normal mode at the next newline) and
// returns zero or more DocTag values: usually one, but a line may carry no
// recognized tag (a plain description line or an `@alias` enum-value
// continuation) and still contribute.
func (p *Parser) parseDocLineTags() []ast.DocTag {
	if p.cur.Type == token.DOC_AT {
		p.advance() // consume DOC_AT, cur is now DOC_TAG_NAME
		if p.cur.Type != token.DOC_TAG_NAME {
			return nil
		}
		name := p.cur.Lexeme
		if needsDocType(name) {
			// Switch before the next fetch: everything past the tag name
			// for these tags is type syntax (possibly starting with `(`,
			// `[`, `?`, `<`), which DocTag mode can't tokenize and would
			// otherwise swallow as one free-text blob.
			p.lex.SetMode(token.DocType)
		}
		p.advance()
		return []ast.DocTag{p.parseKnownTag(name)}
	}
	if p.cur.Type != token.DOC_TEXT && p.cur.Type != token.DOC_TAG_NAME {
		// An empty `---` line: already past it, nothing to collect.
		return nil
	}
	// No `@`: either a continuation description line or an `---| value`
	// alias-enum line. A line of plain words with no punctuation never
	// triggers the lexer's own DocTag->DocDescription fallback (every
	// letter run comes back as its own DOC_TAG_NAME), so fold those back
	// into one blob here.
	start := p.cur.Offset
	text := p.foldFreeText()
	rng := ids.Range{Start: start, End: start + len(text)}
	if strings.HasPrefix(text, "|") {
		value := strings.TrimSpace(strings.TrimPrefix(text, "|"))
		return []ast.DocTag{{Kind: ast.TagAliasEnumLine, Range: rng, Description: value}}
	}
	return []ast.DocTag{{Kind: ast.TagSource, Range: rng, Description: text}}
}

// needsDocType reports whether a tag's content starts with type syntax
// (rather than a bare keyword or free text) immediately after its name.
func needsDocType(name string) bool {
	switch name {
	case "class", "field", "enum", "alias", "type", "param", "return", "overload", "generic", "cast", "as":
		return true
	default:
		return false
	}
}

func (p *Parser) parseKnownTag(name string) ast.DocTag {
	switch name {
	case "class":
		return p.parseClassTag()
	case "field":
		return p.parseFieldTag()
	case "enum":
		return p.parseEnumTag()
	case "alias":
		return p.parseAliasTag()
	case "type":
		return p.parseTypeTag()
	case "param":
		return p.parseParamTag()
	case "return":
		return p.parseReturnTag()
	case "overload":
		return p.parseOverloadTag()
	case "generic":
		return p.parseGenericTag()
	case "cast":
		return p.parseCastTag()
	case "as":
		return p.parseAsTag()
	case "nodiscard":
		return ast.DocTag{Kind: ast.TagNodiscard, Message: p.restOfLine()}
	case "async":
		return ast.DocTag{Kind: ast.TagAsync}
	case "deprecated":
		return ast.DocTag{Kind: ast.TagDeprecated, Message: p.restOfLine()}
	case "version":
		return p.parseVersionTag()
	case "diagnostic":
		return p.parseDiagnosticTag()
	case "meta":
		return ast.DocTag{Kind: ast.TagMeta, Name: p.restOfLine()}
	case "module":
		return ast.DocTag{Kind: ast.TagModule, ModuleName: strings.Trim(p.restOfLine(), `"'`)}
	case "see":
		return ast.DocTag{Kind: ast.TagSee, Ref: p.restOfLine()}
	case "source":
		return ast.DocTag{Kind: ast.TagSource, Ref: p.restOfLine()}
	case "visibility":
		return ast.DocTag{Kind: ast.TagVisibility, Visibility: p.restOfLine()}
	default:
		return ast.DocTag{Kind: ast.TagSource, Description: name + " " + p.restOfLine()}
	}
}

// restOfLine consumes whatever free text remains on the tag line and pops
// the lexer cleanly back out of any mode a tag parser switched into
// (DocType), so the line is always fully drained before the next advance()
// resumes normal-mode tokenizing. Every tag parser ends with this call.
func (p *Parser) restOfLine() string {
	if p.cur.Type == token.DOC_COMMENT || p.cur.Type == token.EOF {
		return ""
	}
	return p.foldFreeText()
}

// foldFreeText reads whatever is left of the current doc line into one
// string, regardless of which mode is currently producing tokens. A
// description already lexed as a single DOC_TEXT is returned as-is; an
// in-progress word-by-word tokenization (DocTag's plain-word fallback, or
// leftover DocType tokens after a type was fully parsed) is force-switched
// into DocDescription mode so the rest of the line collapses to one token,
// and the lead word already sitting in cur is glued back on front.
func (p *Parser) foldFreeText() string {
	if p.cur.Type == token.DOC_TEXT {
		s := p.cur.Lexeme
		p.advance()
		return s
	}
	if p.cur.Type == token.DOC_COMMENT || p.cur.Type == token.EOF {
		return ""
	}
	lead := p.cur.Lexeme
	p.lex.ForceMode(token.DocDescription)
	p.advance()
	if p.cur.Type == token.DOC_TEXT {
		s := strings.TrimSpace(lead + " " + p.cur.Lexeme)
		p.advance()
		return s
	}
	return lead
}

// parseDocTypeExpr parses one type expression from DocType-mode tokens:
// union of postfix-suffixed atoms (`T[]`, `T?`, `table<K,V>`, `Name<T>`,
// `fun(...)`), left-associative `|`.
func (p *Parser) parseDocTypeExpr() *ast.DocType {
	first := p.parseDocTypeAtom()
	if p.cur.Type != token.PIPE {
		return first
	}
	members := []*ast.DocType{first}
	for p.cur.Type == token.PIPE {
		p.advance()
		members = append(members, p.parseDocTypeAtom())
	}
	return &ast.DocType{Kind: ast.DTUnion, Elems: members}
}

func (p *Parser) parseDocTypeAtom() *ast.DocType {
	t := p.parseDocTypePrimary()
	for {
		switch p.cur.Type {
		case token.LBRACKET:
			p.advance()
			p.expect(token.RBRACKET)
			t = &ast.DocType{Kind: ast.DTArray, Elem: t}
		case token.DOC_QUESTION:
			p.advance()
			t = &ast.DocType{Kind: ast.DTOptional, Elem: t}
		default:
			return t
		}
	}
}

func (p *Parser) parseDocTypePrimary() *ast.DocType {
	switch p.cur.Type {
	case token.STRING:
		s := p.cur
		p.advance()
		val, _ := s.Literal.(string)
		return &ast.DocType{Kind: ast.DTStringLiteral, StrVal: val}
	case token.NUMBER:
		n := p.cur
		p.advance()
		if iv, ok := n.Literal.(int64); ok {
			return &ast.DocType{Kind: ast.DTIntegerLiteral, IntVal: iv}
		}
		iv, _ := strconv.ParseInt(n.Lexeme, 10, 64)
		return &ast.DocType{Kind: ast.DTIntegerLiteral, IntVal: iv}
	case token.LPAREN:
		p.advance()
		inner := p.parseDocTypeExpr()
		p.expect(token.RPAREN)
		return &ast.DocType{Kind: ast.DTParen, Elem: inner}
	case token.LBRACE:
		return p.parseDocObjectType()
	case token.FUNCTION:
		return p.parseDocFunType()
	case token.NAME:
		return p.parseDocNameLikeType()
	default:
		p.advance()
		return &ast.DocType{Kind: ast.DTName, Name: "any"}
	}
}

func (p *Parser) parseDocNameLikeType() *ast.DocType {
	name := p.cur.Lexeme
	p.advance()
	switch name {
	case "true":
		return &ast.DocType{Kind: ast.DTBooleanLiteral, BoolVal: true}
	case "false":
		return &ast.DocType{Kind: ast.DTBooleanLiteral, BoolVal: false}
	case "table":
		if p.cur.Type == token.DOC_LT {
			p.advance()
			var elems []*ast.DocType
			elems = append(elems, p.parseDocTypeExpr())
			for p.cur.Type == token.COMMA {
				p.advance()
				elems = append(elems, p.parseDocTypeExpr())
			}
			p.expect(token.DOC_GT)
			return &ast.DocType{Kind: ast.DTTable, Elems: elems}
		}
		return &ast.DocType{Kind: ast.DTName, Name: "table"}
	case "fun":
		return p.parseDocFunTypeFromName()
	}
	if p.cur.Type == token.DOC_LT {
		p.advance()
		var args []*ast.DocType
		args = append(args, p.parseDocTypeExpr())
		for p.cur.Type == token.COMMA {
			p.advance()
			args = append(args, p.parseDocTypeExpr())
		}
		p.expect(token.DOC_GT)
		return &ast.DocType{Kind: ast.DTGeneric, Name: name, Elems: args}
	}
	return &ast.DocType{Kind: ast.DTName, Name: name}
}

func (p *Parser) parseDocFunType() *ast.DocType {
	p.advance() // consume 'function' keyword token if lexer produced it as FUNCTION
	return p.parseDocFunTypeFromName()
}

func (p *Parser) parseDocFunTypeFromName() *ast.DocType {
	dt := &ast.DocType{Kind: ast.DTFun}
	p.expect(token.LPAREN)
	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
		if p.cur.Type == token.ELLIPSIS {
			p.advance()
			dt.FunVararg = true
			if p.cur.Type == token.COLON {
				p.advance()
				ty := p.parseDocTypeExpr()
				dt.FunParams = append(dt.FunParams, ast.DocFunParam{Name: "...", Type: ty})
			}
			break
		}
		pname := ""
		if p.cur.Type == token.NAME {
			pname = p.cur.Lexeme
			p.advance()
		}
		optional := false
		if p.cur.Type == token.DOC_QUESTION {
			optional = true
			p.advance()
		}
		var ty *ast.DocType
		if p.cur.Type == token.COLON {
			p.advance()
			ty = p.parseDocTypeExpr()
		}
		dt.FunParams = append(dt.FunParams, ast.DocFunParam{Name: pname, Optional: optional, Type: ty})
		if p.cur.Type != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)
	if p.cur.Type == token.COLON {
		p.advance()
		dt.FunReturns = append(dt.FunReturns, p.parseDocTypeExpr())
		for p.cur.Type == token.COMMA {
			p.advance()
			dt.FunReturns = append(dt.FunReturns, p.parseDocTypeExpr())
		}
	}
	return dt
}

func (p *Parser) parseDocObjectType() *ast.DocType {
	p.expect(token.LBRACE)
	dt := &ast.DocType{Kind: ast.DTObject}
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		field := ast.DocObjectField{}
		if p.cur.Type == token.LBRACKET {
			p.advance()
			if p.cur.Type == token.STRING {
				field.KeyIsStr = true
				field.Key, _ = p.cur.Literal.(string)
			} else {
				field.Key = p.cur.Lexeme
			}
			p.advance()
			p.expect(token.RBRACKET)
		} else {
			field.Key = p.cur.Lexeme
			p.advance()
		}
		p.expect(token.COLON)
		field.Type = p.parseDocTypeExpr()
		dt.ObjectFields = append(dt.ObjectFields, field)
		if p.cur.Type == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RBRACE)
	return dt
}

// --- individual tags -----------------------------------------------------

func (p *Parser) parseClassTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagClass}
	if p.cur.Type == token.LPAREN {
		p.advance()
		if p.cur.Type == token.NAME {
			tag.Attrib = p.cur.Lexeme
			p.advance()
		}
		p.expect(token.RPAREN)
	}
	if p.cur.Type == token.NAME {
		tag.Name = p.cur.Lexeme
		p.advance()
	}
	tag.GenericParams = p.parseGenericParamList()
	if p.cur.Type == token.COLON {
		p.advance()
		for {
			if p.cur.Type == token.NAME {
				tag.Supers = append(tag.Supers, p.cur.Lexeme)
				p.advance()
			}
			if p.cur.Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	tag.Description = p.restOfLine()
	return tag
}

func (p *Parser) parseGenericParamList() []ast.GenericParam {
	var params []ast.GenericParam
	if p.cur.Type != token.DOC_LT {
		return nil
	}
	p.advance()
	for {
		if p.cur.Type != token.NAME {
			break
		}
		gp := ast.GenericParam{Name: p.cur.Lexeme}
		p.advance()
		if p.cur.Type == token.COLON {
			p.advance()
			c := p.parseDocTypeExpr()
			gp.Constraint = c
		}
		params = append(params, gp)
		if p.cur.Type != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.DOC_GT)
	return params
}

func (p *Parser) parseFieldTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagField}
	switch p.cur.Lexeme {
	case "public", "protected", "private", "package":
		tag.Visibility = p.cur.Lexeme
		p.advance()
	}
	if p.cur.Type == token.LBRACKET {
		p.advance()
		if p.cur.Type == token.STRING {
			tag.FieldKeyIsString = true
			tag.FieldKeyName, _ = p.cur.Literal.(string)
		} else if p.cur.Type == token.NUMBER {
			if iv, ok := p.cur.Literal.(int64); ok {
				tag.FieldKeyInt = &iv
			}
		} else {
			tag.FieldKeyName = p.cur.Lexeme
		}
		p.advance()
		p.expect(token.RBRACKET)
	} else if p.cur.Type == token.NAME {
		tag.FieldKeyName = p.cur.Lexeme
		p.advance()
	}
	tag.Type = p.parseDocTypeExpr()
	tag.Description = p.restOfLine()
	return tag
}

func (p *Parser) parseEnumTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagEnum}
	if p.cur.Type == token.LPAREN {
		p.advance()
		if p.cur.Type == token.NAME {
			tag.EnumKeyMode = p.cur.Lexeme
			p.advance()
		}
		p.expect(token.RPAREN)
	}
	if p.cur.Type == token.NAME {
		tag.Name = p.cur.Lexeme
		p.advance()
	}
	tag.Description = p.restOfLine()
	return tag
}

func (p *Parser) parseAliasTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagAlias}
	if p.cur.Type == token.NAME {
		tag.Name = p.cur.Lexeme
		p.advance()
	}
	tag.GenericParams = p.parseGenericParamList()
	if p.cur.Type != token.DOC_TEXT && p.cur.Type != token.DOC_COMMENT {
		if isDocTypeStart(p.cur.Type) {
			tag.AliasBody = p.parseDocTypeExpr()
		}
	}
	tag.Description = p.restOfLine()
	return tag
}

func isDocTypeStart(tt token.Type) bool {
	switch tt {
	case token.NAME, token.STRING, token.NUMBER, token.LPAREN, token.LBRACE, token.FUNCTION:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTypeTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagType}
	tag.Types = append(tag.Types, p.parseDocTypeExpr())
	for p.cur.Type == token.COMMA {
		p.advance()
		tag.Types = append(tag.Types, p.parseDocTypeExpr())
	}
	tag.Description = p.restOfLine()
	return tag
}

func (p *Parser) parseParamTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagParam}
	if p.cur.Type == token.ELLIPSIS {
		tag.IsVarargParam = true
		tag.ParamName = "..."
		p.advance()
	} else if p.cur.Type == token.NAME {
		tag.ParamName = p.cur.Lexeme
		p.advance()
		if p.cur.Type == token.DOC_QUESTION {
			tag.ParamOptional = true
			p.advance()
		}
	}
	tag.Type = p.parseDocTypeExpr()
	tag.Description = p.restOfLine()
	return tag
}

func (p *Parser) parseReturnTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagReturn}
	tag.Type = p.parseDocTypeExpr()
	if p.cur.Type == token.NAME {
		tag.ReturnName = p.cur.Lexeme
		p.advance()
	}
	tag.Description = p.restOfLine()
	return tag
}

func (p *Parser) parseOverloadTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagOverload}
	tag.OverloadFn = p.parseDocTypeExpr()
	p.restOfLine()
	return tag
}

func (p *Parser) parseGenericTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagGeneric}
	tag.GenericParams = append(tag.GenericParams, p.parseOneGenericParam())
	for p.cur.Type == token.COMMA {
		p.advance()
		tag.GenericParams = append(tag.GenericParams, p.parseOneGenericParam())
	}
	p.restOfLine()
	return tag
}

func (p *Parser) parseOneGenericParam() ast.GenericParam {
	gp := ast.GenericParam{}
	if p.cur.Type == token.NAME {
		gp.Name = p.cur.Lexeme
		p.advance()
	}
	if p.cur.Type == token.COLON {
		p.advance()
		gp.Constraint = p.parseDocTypeExpr()
	}
	return gp
}

func (p *Parser) parseCastTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagCast}
	if p.cur.Type == token.NAME {
		tag.CastTarget = p.cur.Lexeme
		p.advance()
		for p.cur.Type == token.DOT {
			p.advance()
			if p.cur.Type == token.NAME {
				tag.CastTarget += "." + p.cur.Lexeme
				p.advance()
			}
		}
	}
	for {
		op := ast.CastOp{}
		switch p.cur.Type {
		case token.PLUS:
			p.advance()
			op.Kind = ast.CastAdd
			op.Type = p.parseDocTypeExpr()
		case token.MINUS:
			p.advance()
			if p.cur.Type == token.DOC_QUESTION {
				p.advance()
				op.Kind = ast.CastRemoveNil
			} else {
				op.Kind = ast.CastRemove
				op.Type = p.parseDocTypeExpr()
			}
		default:
			op.Kind = ast.CastForce
			op.Type = p.parseDocTypeExpr()
		}
		tag.CastOps = append(tag.CastOps, op)
		if p.cur.Type != token.COMMA {
			break
		}
		p.advance()
	}
	p.restOfLine()
	return tag
}

func (p *Parser) parseAsTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagAs}
	tag.Type = p.parseDocTypeExpr()
	p.restOfLine()
	return tag
}

func (p *Parser) parseVersionTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagVersion}
	text := p.restOfLine()
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tag.VersionConstraints = append(tag.VersionConstraints, part)
		}
	}
	return tag
}

func (p *Parser) parseDiagnosticTag() ast.DocTag {
	tag := ast.DocTag{Kind: ast.TagDiagnostic}
	if p.cur.Type == token.DOC_TAG_NAME || p.cur.Type == token.NAME {
		tag.DiagnosticAction = p.cur.Lexeme
		p.advance()
	}
	text := strings.TrimPrefix(strings.TrimSpace(p.restOfLine()), ":")
	for _, code := range strings.Split(text, ",") {
		code = strings.TrimSpace(code)
		if code != "" {
			tag.DiagnosticCodes = append(tag.DiagnosticCodes, code)
		}
	}
	return tag
}
