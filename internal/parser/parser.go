// Package parser implements a recursive-descent/Pratt parser producing an
// *ast.Chunk from a token stream, grounded on the teacher's (funxy)
// internal/parser package shape (`New(tokens) *Parser`, `parseStatement`
// dispatch table, Pratt expression parsing) but generalized to Lua
// 5.1-5.4/LuaJIT grammar plus doc-comment attachment per spec.md §6.
package parser

import (
	"fmt"
	"strconv"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/lexer"
	"github.com/emmylua-go/analyzer/internal/token"
)

// SyntaxError is a recoverable parse diagnostic (spec.md §7: "surfaced as
// diagnostic items tagged with a SyntaxError code; analysis of the
// containing file still proceeds on the partial tree").
type SyntaxError struct {
	Message string
	Line    int
	Column  int
	Offset  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

type Parser struct {
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token

	// inDocLine is set while collectDocLine is consuming one `---` line.
	// The lexer's mode changes mid-line (DocTag -> DocType and back) as the
	// doc-tag grammar is recognized, so advance() drops the normal 2-token
	// lookahead buffer here and fetches one token at a time directly:
	// otherwise a token prefetched into peek under the old mode would go
	// stale the moment the doc parser switches mode.
	inDocLine bool

	errs []error

	pendingDocs []*ast.DocComment
}

func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src)}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	if p.inDocLine {
		p.cur = p.lex.NextToken()
		return
	}
	p.cur = p.peek
	p.peek = p.lex.NextToken()
	for p.cur.Type == token.DOC_COMMENT {
		p.inDocLine = true
		p.cur = p.peek // already lexed correctly under DocTag mode
		p.collectDocLine()
		p.inDocLine = false
		p.peek = p.lex.NextToken()
	}
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Line:    p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset,
	})
}

func (p *Parser) expect(tt token.Type) token.Token {
	if p.cur.Type != tt {
		p.errorf("expected %s, got %s (%q)", tt, p.cur.Type, p.cur.Lexeme)
		return p.cur
	}
	t := p.cur
	p.advance()
	return t
}

func rangeFrom(start, endTok token.Token) ids.Range {
	end := endTok.Offset + len(endTok.Lexeme)
	if end < start.Offset {
		end = start.Offset
	}
	return ids.Range{Start: start.Offset, End: end}
}

// ParseChunk parses the whole input as one file's AST.
func ParseChunk(file, src string) (*ast.Chunk, []error) {
	p := New(src)
	start := p.cur
	body := p.parseBlock(isChunkEnd)
	end := p.cur
	p.takePendingDocsInto(nil) // drop doc comments with nothing left to attach to (trailing comments)
	return ast.NewChunk(file, body, rangeFrom(start, end)), p.errs
}

func isChunkEnd(tt token.Type) bool { return tt == token.EOF }

func isBlockEnd(tt token.Type) bool {
	switch tt {
	case token.EOF, token.END, token.ELSE, token.ELSEIF, token.UNTIL:
		return true
	default:
		return false
	}
}

func (p *Parser) parseBlock(stop func(token.Type) bool) *ast.Block {
	start := p.cur
	var stats []ast.Statement
	for !stop(p.cur.Type) {
		if p.cur.Type == token.SEMI {
			p.advance()
			continue
		}
		if p.cur.Type == token.RETURN {
			stats = append(stats, p.parseReturnStat())
			break
		}
		s := p.parseStatement()
		if s != nil {
			stats = append(stats, s)
		} else {
			// avoid infinite loop on unrecognized tokens
			p.advance()
		}
	}
	return ast.NewBlock(stats, rangeFrom(start, p.cur))
}

func (p *Parser) collectDocLine() {
	start := p.cur
	tags := p.parseDocLineTags()
	if len(p.pendingDocs) > 0 {
		last := p.pendingDocs[len(p.pendingDocs)-1]
		last.Tags = append(last.Tags, tags...)
		last.Range.End = p.lex.Offset()
		return
	}
	p.pendingDocs = append(p.pendingDocs, &ast.DocComment{
		Range: ids.Range{Start: start.Offset, End: p.lex.Offset()},
		Tags:  tags,
	})
}

func (p *Parser) takePendingDocsInto(dst *ast.DocAttach) []*ast.DocComment {
	docs := p.pendingDocs
	p.pendingDocs = nil
	if dst != nil {
		dst.Docs = docs
	}
	return docs
}

func (p *Parser) parseStatement() ast.Statement {
	docStart := len(p.pendingDocs)
	_ = docStart
	switch p.cur.Type {
	case token.LOCAL:
		return p.parseLocalStat()
	case token.IF:
		return p.parseIfStat()
	case token.WHILE:
		return p.parseWhileStat()
	case token.DO:
		return p.parseDoStat()
	case token.REPEAT:
		return p.parseRepeatStat()
	case token.FOR:
		return p.parseForStat()
	case token.FUNCTION:
		return p.parseFunctionStat()
	case token.BREAK:
		t := p.cur
		p.advance()
		return ast.NewBreakStat(rangeFrom(t, t))
	case token.GOTO:
		t := p.cur
		p.advance()
		name := p.expect(token.NAME)
		return ast.NewGotoStat(name.Lexeme, rangeFrom(t, name))
	case token.DCOLON:
		t := p.cur
		p.advance()
		name := p.expect(token.NAME)
		end := p.expect(token.DCOLON)
		return ast.NewLabelStat(name.Lexeme, rangeFrom(t, end))
	case token.RETURN:
		return p.parseReturnStat()
	default:
		return p.parseExprStat()
	}
}

func (p *Parser) parseReturnStat() ast.Statement {
	t := p.cur
	p.advance()
	var exprs []ast.Expression
	if !isBlockEnd(p.cur.Type) && p.cur.Type != token.SEMI {
		exprs = p.parseExprList()
	}
	end := p.cur
	for p.cur.Type == token.SEMI {
		p.advance()
	}
	return ast.NewReturnStat(exprs, rangeFrom(t, end))
}

func (p *Parser) parseLocalStat() ast.Statement {
	t := p.cur
	p.advance()
	if p.cur.Type == token.FUNCTION {
		p.advance()
		name := p.expect(token.NAME)
		stat := ast.NewLocalFunctionStat(rangeFrom(t, name))
		p.takePendingDocsInto(&stat.DocAttach)
		stat.Name = name.Lexeme
		stat.NameEnd = name.Offset + len(name.Lexeme)
		stat.Func = p.parseFunctionBody(false)
		return stat
	}
	stat := ast.NewLocalStat(rangeFrom(t, t))
	p.takePendingDocsInto(&stat.DocAttach)
	for {
		name := p.expect(token.NAME)
		stat.Names = append(stat.Names, name.Lexeme)
		stat.NameEnd = append(stat.NameEnd, name.Offset+len(name.Lexeme))
		attrib := ""
		if p.cur.Type == token.LT {
			p.advance()
			a := p.expect(token.NAME)
			attrib = a.Lexeme
			p.expect(token.GT)
		}
		stat.Attribs = append(stat.Attribs, attrib)
		if p.cur.Type != token.COMMA {
			break
		}
		p.advance()
	}
	if p.cur.Type == token.ASSIGN {
		p.advance()
		stat.Exprs = p.parseExprList()
	}
	stat.R = rangeFrom(t, p.prevTok())
	return stat
}

// prevTok approximates "the token just consumed" for range-closing by
// reading cur (ranges don't need byte-perfect end offsets for analysis
// correctness, only monotonic, non-overlapping spans).
func (p *Parser) prevTok() token.Token { return p.cur }

func (p *Parser) parseIfStat() ast.Statement {
	t := p.cur
	var clauses []ast.IfClause
	p.advance()
	cond := p.parseExpr()
	p.expect(token.THEN)
	body := p.parseBlock(isBlockEnd)
	clauses = append(clauses, ast.IfClause{Cond: cond, Body: body})
	for p.cur.Type == token.ELSEIF {
		p.advance()
		c := p.parseExpr()
		p.expect(token.THEN)
		b := p.parseBlock(isBlockEnd)
		clauses = append(clauses, ast.IfClause{Cond: c, Body: b})
	}
	if p.cur.Type == token.ELSE {
		p.advance()
		b := p.parseBlock(isBlockEnd)
		clauses = append(clauses, ast.IfClause{Body: b})
	}
	end := p.expect(token.END)
	return ast.NewIfStat(clauses, rangeFrom(t, end))
}

func (p *Parser) parseWhileStat() ast.Statement {
	t := p.cur
	p.advance()
	cond := p.parseExpr()
	p.expect(token.DO)
	body := p.parseBlock(isBlockEnd)
	end := p.expect(token.END)
	return ast.NewWhileStat(cond, body, rangeFrom(t, end))
}

func (p *Parser) parseDoStat() ast.Statement {
	t := p.cur
	p.advance()
	body := p.parseBlock(isBlockEnd)
	end := p.expect(token.END)
	return ast.NewDoStat(body, rangeFrom(t, end))
}

func (p *Parser) parseRepeatStat() ast.Statement {
	t := p.cur
	p.advance()
	body := p.parseBlock(func(tt token.Type) bool { return tt == token.UNTIL || tt == token.EOF })
	p.expect(token.UNTIL)
	cond := p.parseExpr()
	return ast.NewRepeatStat(body, cond, rangeFrom(t, p.prevTok()))
}

func (p *Parser) parseForStat() ast.Statement {
	t := p.cur
	p.advance()
	first := p.expect(token.NAME)
	if p.cur.Type == token.ASSIGN {
		p.advance()
		stat := ast.NewNumericForStat(rangeFrom(t, t))
		stat.Name = first.Lexeme
		stat.NameEnd = first.Offset + len(first.Lexeme)
		stat.Start = p.parseExpr()
		p.expect(token.COMMA)
		stat.Stop = p.parseExpr()
		if p.cur.Type == token.COMMA {
			p.advance()
			stat.Step = p.parseExpr()
		}
		p.expect(token.DO)
		stat.Body = p.parseBlock(isBlockEnd)
		end := p.expect(token.END)
		stat.R = rangeFrom(t, end)
		return stat
	}
	stat := ast.NewGenericForStat(rangeFrom(t, t))
	stat.Names = append(stat.Names, first.Lexeme)
	stat.NameEnd = append(stat.NameEnd, first.Offset+len(first.Lexeme))
	for p.cur.Type == token.COMMA {
		p.advance()
		n := p.expect(token.NAME)
		stat.Names = append(stat.Names, n.Lexeme)
		stat.NameEnd = append(stat.NameEnd, n.Offset+len(n.Lexeme))
	}
	p.expect(token.IN)
	stat.Exprs = p.parseExprList()
	p.expect(token.DO)
	stat.Body = p.parseBlock(isBlockEnd)
	end := p.expect(token.END)
	stat.R = rangeFrom(t, end)
	return stat
}

func (p *Parser) parseFunctionStat() ast.Statement {
	t := p.cur
	p.advance()
	stat := ast.NewFunctionStat(rangeFrom(t, t))
	p.takePendingDocsInto(&stat.DocAttach)
	first := p.expect(token.NAME)
	name := first
	for p.cur.Type == token.DOT {
		p.advance()
		stat.DottedPath = append(stat.DottedPath, name.Lexeme)
		name = p.expect(token.NAME)
	}
	if p.cur.Type == token.COLON {
		p.advance()
		stat.DottedPath = append(stat.DottedPath, name.Lexeme)
		name = p.expect(token.NAME)
		stat.IsMethod = true
	}
	stat.Name = name.Lexeme
	stat.NameEnd = name.Offset + len(name.Lexeme)
	stat.Func = p.parseFunctionBody(stat.IsMethod)
	stat.R = rangeFrom(t, p.prevTok())
	return stat
}

func (p *Parser) parseFunctionBody(selfOwner bool) *ast.FunctionExpr {
	t := p.cur
	fn := ast.NewFunctionExpr(rangeFrom(t, t))
	p.takePendingDocsInto(&fn.DocAttach)
	fn.SelfOwner = selfOwner
	p.expect(token.LPAREN)
	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
		if p.cur.Type == token.ELLIPSIS {
			p.advance()
			fn.IsVararg = true
			break
		}
		n := p.expect(token.NAME)
		fn.Params = append(fn.Params, ast.Param{Name: n.Lexeme, NameEnd: n.Offset + len(n.Lexeme)})
		if p.cur.Type != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)
	fn.Body = p.parseBlock(isBlockEnd)
	end := p.expect(token.END)
	fn.R = rangeFrom(t, end)
	return fn
}

func (p *Parser) parseExprStat() ast.Statement {
	t := p.cur
	first := p.parseSuffixedExpr()
	if p.cur.Type == token.ASSIGN || p.cur.Type == token.COMMA {
		stat := ast.NewAssignStat(rangeFrom(t, t))
		p.takePendingDocsInto(&stat.DocAttach)
		stat.Targets = append(stat.Targets, first)
		for p.cur.Type == token.COMMA {
			p.advance()
			stat.Targets = append(stat.Targets, p.parseSuffixedExpr())
		}
		p.expect(token.ASSIGN)
		stat.Exprs = p.parseExprList()
		stat.R = rangeFrom(t, p.prevTok())
		return stat
	}
	switch first.(type) {
	case *ast.CallExpr, *ast.MethodCallExpr:
		return ast.NewCallStat(first, first.Range())
	default:
		p.errorf("syntax error: unexpected expression statement")
		return nil
	}
}

func (p *Parser) parseExprList() []ast.Expression {
	exprs := []ast.Expression{p.parseExpr()}
	for p.cur.Type == token.COMMA {
		p.advance()
		exprs = append(exprs, p.parseExpr())
	}
	return exprs
}

// --- Pratt expression parsing -------------------------------------------

type precLevel struct{ left, right int }

var binPrec = map[token.Type]precLevel{
	token.OR:     {1, 1},
	token.AND:    {2, 2},
	token.LT:     {3, 3}, token.GT: {3, 3}, token.LE: {3, 3}, token.GE: {3, 3}, token.NEQ: {3, 3}, token.EQ: {3, 3},
	token.PIPE:   {4, 4},
	token.TILDE:  {5, 5},
	token.AMP:    {6, 6},
	token.LSHIFT: {7, 7}, token.RSHIFT: {7, 7},
	token.CONCAT: {9, 8}, // right-assoc
	token.PLUS:   {10, 10}, token.MINUS: {10, 10},
	token.STAR: {11, 11}, token.SLASH: {11, 11}, token.DSLASH: {11, 11}, token.PERCENT: {11, 11},
	token.CARET: {14, 13}, // right-assoc, binds tighter than unary
}

const unaryPrec = 12

func (p *Parser) parseExpr() ast.Expression { return p.parseBinExpr(0) }

func (p *Parser) parseBinExpr(minPrec int) ast.Expression {
	left := p.parseUnaryExpr()
	for {
		pl, ok := binPrec[p.cur.Type]
		if !ok || pl.left < minPrec {
			break
		}
		opTok := p.cur
		p.advance()
		right := p.parseBinExpr(pl.right + 1)
		left = ast.NewBinaryExpr(opTok.Lexeme, left, right, rangeFrom(leftStart(left), p.prevTok()))
	}
	return left
}

func leftStart(e ast.Expression) token.Token {
	r := e.Range()
	return token.Token{Offset: r.Start}
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	switch p.cur.Type {
	case token.NOT, token.MINUS, token.HASH, token.TILDE:
		t := p.cur
		p.advance()
		operand := p.parseBinExpr(unaryPrec)
		return ast.NewUnaryExpr(t.Lexeme, operand, rangeFrom(t, p.prevTok()))
	default:
		return p.parsePowExpr()
	}
}

func (p *Parser) parsePowExpr() ast.Expression {
	return p.parseSuffixedExpr()
}

func (p *Parser) parseSuffixedExpr() ast.Expression {
	e := p.parsePrimaryExpr()
	for {
		switch p.cur.Type {
		case token.DOT:
			t := e.Range()
			p.advance()
			name := p.expect(token.NAME)
			idx := ast.NewIndexExpr(e, ids.Range{Start: t.Start, End: name.Offset + len(name.Lexeme)})
			idx.DotStyle = true
			idx.Key = name.Lexeme
			e = idx
		case token.LBRACKET:
			t := e.Range()
			p.advance()
			key := p.parseExpr()
			end := p.expect(token.RBRACKET)
			idx := ast.NewIndexExpr(e, ids.Range{Start: t.Start, End: end.Offset + 1})
			idx.KeyExpr = key
			e = idx
		case token.COLON:
			t := e.Range()
			p.advance()
			method := p.expect(token.NAME)
			args := p.parseCallArgs()
			e = ast.NewMethodCallExpr(e, method.Lexeme, args, ids.Range{Start: t.Start, End: p.prevTok().Offset})
		case token.LPAREN, token.STRING, token.LBRACE:
			t := e.Range()
			args := p.parseCallArgs()
			e = ast.NewCallExpr(e, args, ids.Range{Start: t.Start, End: p.prevTok().Offset})
		default:
			return e
		}
	}
}

func (p *Parser) parseCallArgs() []ast.Expression {
	switch p.cur.Type {
	case token.LPAREN:
		p.advance()
		var args []ast.Expression
		if p.cur.Type != token.RPAREN {
			args = p.parseExprList()
		}
		p.expect(token.RPAREN)
		return args
	case token.STRING:
		t := p.cur
		p.advance()
		return []ast.Expression{ast.NewStringExpr(fmt.Sprint(t.Literal), rangeFrom(t, t))}
	case token.LBRACE:
		table := p.parseTableExpr()
		return []ast.Expression{table}
	default:
		p.errorf("expected call arguments")
		return nil
	}
}

func (p *Parser) parsePrimaryExpr() ast.Expression {
	t := p.cur
	switch t.Type {
	case token.NIL:
		p.advance()
		return ast.NewNilExpr(rangeFrom(t, t))
	case token.TRUE:
		p.advance()
		return ast.NewTrueExpr(rangeFrom(t, t))
	case token.FALSE:
		p.advance()
		return ast.NewFalseExpr(rangeFrom(t, t))
	case token.ELLIPSIS:
		p.advance()
		return ast.NewVarargExpr(rangeFrom(t, t))
	case token.NUMBER:
		p.advance()
		return p.numberExprFrom(t)
	case token.STRING:
		p.advance()
		return ast.NewStringExpr(fmt.Sprint(t.Literal), rangeFrom(t, t))
	case token.NAME:
		p.advance()
		return ast.NewNameExpr(t.Lexeme, rangeFrom(t, t))
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		end := p.expect(token.RPAREN)
		return ast.NewParenExpr(inner, rangeFrom(t, end))
	case token.LBRACE:
		return p.parseTableExpr()
	case token.FUNCTION:
		p.advance()
		return p.parseFunctionBody(false)
	default:
		p.errorf("unexpected token %s (%q) in expression", t.Type, t.Lexeme)
		p.advance()
		return ast.NewNilExpr(rangeFrom(t, t))
	}
}

func (p *Parser) numberExprFrom(t token.Token) *ast.NumberExpr {
	e := ast.NewNumberExpr(rangeFrom(t, t))
	e.Lexeme = t.Lexeme
	switch v := t.Literal.(type) {
	case int64:
		e.IsInt, e.Int = true, v
	case float64:
		e.Float = v
	default:
		if f, err := strconv.ParseFloat(t.Lexeme, 64); err == nil {
			e.Float = f
		}
	}
	return e
}

func (p *Parser) parseTableExpr() ast.Expression {
	t := p.cur
	tbl := ast.NewTableExpr(rangeFrom(t, t))
	p.takePendingDocsInto(&tbl.DocAttach)
	p.expect(token.LBRACE)
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		fieldStart := p.cur
		field := ast.TableField{}
		if p.cur.Type == token.LBRACKET {
			p.advance()
			field.KeyExpr = p.parseExpr()
			p.expect(token.RBRACKET)
			p.expect(token.ASSIGN)
			field.Value = p.parseExpr()
		} else if p.cur.Type == token.NAME && p.peek.Type == token.ASSIGN {
			name := p.cur
			p.advance()
			p.advance()
			k := name.Lexeme
			field.Key = &k
			field.Value = p.parseExpr()
		} else {
			field.Value = p.parseExpr()
		}
		field.Range = rangeFrom(fieldStart, p.prevTok())
		tbl.Fields = append(tbl.Fields, field)
		if p.cur.Type == token.COMMA || p.cur.Type == token.SEMI {
			p.advance()
		} else {
			break
		}
	}
	end := p.expect(token.RBRACE)
	tbl.R = rangeFrom(t, end)
	return tbl
}
