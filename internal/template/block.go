package template

// part is one element of a block's body: either literal text or an
// expression clause or a nested conditional.
type part struct {
	literal  string
	isExpr   bool
	expr     Expr
	raw      string // verbatim source of the clause, for partial fallback
	optional bool
	isIf     bool
	cond     *ifNode
}

// ifNode is one conditional clause: a condition expression, a "then" block
// active before `${else}`, and an "else" block active afterward. else is
// optional (a missing else makes the else-branch empty); endif is required.
type ifNode struct {
	cond Expr
	then []part
	els  []part
}

// block is the root (or a branch) of the conditional tree: a flat sequence of
// parts to concatenate in order.
type block []part

// buildTree assembles the linear token stream produced by scan into the
// conditional block tree described in §4.1: "if opens a node ... else swaps
// the active branch ... endif pops."
func buildTree(toks []token) (block, error) {
	type frame struct {
		node   *ifNode
		active *[]part // points at &node.then or &node.els
	}

	root := block{}
	var stack []frame
	cur := &root

	appendPart := func(p part) {
		if len(stack) == 0 {
			*cur = append(*cur, p)
			return
		}
		top := &stack[len(stack)-1]
		*top.active = append(*top.active, p)
	}

	for _, tk := range toks {
		switch tk.kind {
		case tokLiteral:
			appendPart(part{literal: tk.text})
		case tokExpr:
			expr, err := parseExpr(tk.src)
			if err != nil {
				return nil, err
			}
			appendPart(part{isExpr: true, expr: expr, optional: tk.optional, raw: tk.raw})
		case tokIf:
			cond, err := parseExpr(tk.src)
			if err != nil {
				return nil, err
			}
			n := &ifNode{cond: cond}
			appendPart(part{isIf: true, cond: n})
			stack = append(stack, frame{node: n, active: &n.then})
		case tokElse:
			if len(stack) == 0 {
				return nil, newErr(ErrTemplateStructure, "", "\"${else}\" without matching \"${if}\"")
			}
			top := &stack[len(stack)-1]
			top.active = &top.node.els
		case tokEndif:
			if len(stack) == 0 {
				return nil, newErr(ErrTemplateStructure, "", "\"${endif}\" without matching \"${if}\"")
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return nil, newErr(ErrTemplateStructure, "", "missing \"${endif}\" for \"${if}\"")
	}
	return root, nil
}

// soleExpr returns the single expression clause that spans the entire block,
// if the block consists of exactly one expression part with no surrounding
// literal text. This is what lets `${a.b || c}`-style single clauses
// resolve to a raw (non-stringified) value.
func (b block) soleExpr() (Expr, bool, bool) {
	if len(b) != 1 || !b[0].isExpr {
		return nil, false, false
	}
	return b[0].expr, b[0].optional, true
}
