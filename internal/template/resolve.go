package template

import "strings"

// Options controls how Resolve treats unresolvable references and escape
// sequences.
type Options struct {
	// AllowPartial makes an unresolvable (non-optional) reference resolve to
	// its own original "${...}" source text instead of failing, so a later
	// call to Resolve with a richer Context can finish the job.
	AllowPartial bool
	// Unescape collapses the "$${" escape sequence down to a literal "${" in
	// the final string output. Leave it false for every pass except the
	// last, or the escape cannot survive a second partial pass.
	Unescape bool
	// ScanOnly, when true, forces AllowPartial semantics and records every
	// path touched into the ScanResult passed to resolveWithScan, without
	// requiring any of them to actually resolve. Scan uses this internally.
	ScanOnly bool
}

// ScanResult is the output of Scan: every context key path referenced by a
// template, whether or not it currently resolves.
type ScanResult struct {
	foundKeys map[string]bool
	order     []string
}

func newScanResult() *ScanResult {
	return &ScanResult{foundKeys: make(map[string]bool)}
}

func (s *ScanResult) record(key string) {
	if s == nil {
		return
	}
	if !s.foundKeys[key] {
		s.foundKeys[key] = true
		s.order = append(s.order, key)
	}
}

// FoundKeys returns every key path referenced, in first-seen order.
func (s *ScanResult) FoundKeys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Resolve evaluates src against ctx, returning a Go value (string, float64,
// bool, nil, []any or map[string]any). When the whole of src is a single
// `${...}` clause with no surrounding literal text, the clause's raw type is
// preserved; otherwise every clause is stringified and concatenated with the
// surrounding literal fragments.
func Resolve(src string, ctx Context, opts Options) (any, error) {
	return resolveWithScan(src, ctx, opts, nil)
}

// Scan evaluates src in partial mode purely to discover which context key
// paths it touches; it never fails on a missing key and never requires one
// to resolve.
func Scan(src string, ctx Context) (*ScanResult, error) {
	sr := newScanResult()
	_, err := resolveWithScan(src, ctx, Options{AllowPartial: true, ScanOnly: true}, sr)
	if err != nil {
		return sr, err
	}
	return sr, nil
}

func resolveWithScan(src string, ctx Context, opts Options, scan *ScanResult) (any, error) {
	toks, err := scan_(src)
	if err != nil {
		return nil, err
	}
	tree, err := buildTree(toks)
	if err != nil {
		return nil, err
	}

	if expr, optional, ok := tree.soleExpr(); ok {
		out, err := evalExpr(expr, ctx, scan)
		if err != nil {
			if opts.ScanOnly {
				return nil, nil
			}
			return nil, err
		}
		if out.missing {
			switch {
			case opts.ScanOnly:
				return nil, nil
			case optional:
				return "", nil
			case opts.AllowPartial:
				return applyUnescape(src, opts), nil
			default:
				return nil, newErr(ErrMissingKey, src, "unresolved reference")
			}
		}
		return fromCty(out.value), nil
	}

	var sb strings.Builder
	if err := renderBlock(tree, ctx, opts, scan, &sb); err != nil {
		return nil, err
	}
	return applyUnescape(sb.String(), opts), nil
}

// scan_ is the tokenizer entry point; named with a trailing underscore to
// avoid colliding with the exported Scan function.
func scan_(src string) ([]token, error) { return scan(src) }

func applyUnescape(s string, opts Options) string {
	if !opts.Unescape {
		return s
	}
	return strings.ReplaceAll(s, "$${", "${")
}

func renderBlock(b block, ctx Context, opts Options, scan *ScanResult, sb *strings.Builder) error {
	for _, p := range b {
		switch {
		case p.isIf:
			cond, err := evalExpr(p.cond.cond, ctx, scan)
			if err != nil {
				if opts.ScanOnly {
					// keep scanning both branches even if the condition fails
					_ = renderBlock(p.cond.then, ctx, opts, scan, sb)
					_ = renderBlock(p.cond.els, ctx, opts, scan, sb)
					continue
				}
				return err
			}
			if cond.missing {
				if opts.ScanOnly {
					_ = renderBlock(p.cond.then, ctx, opts, scan, sb)
					_ = renderBlock(p.cond.els, ctx, opts, scan, sb)
					continue
				}
				if opts.AllowPartial {
					// Condition itself can't be decided yet; leave the whole
					// conditional as unresolved source for a later pass.
					sb.WriteString("${if ")
					sb.WriteString(exprSource(p.cond.cond))
					sb.WriteString("}")
					if err := renderBlock(p.cond.then, ctx, opts, scan, sb); err != nil {
						return err
					}
					sb.WriteString("${else}")
					if err := renderBlock(p.cond.els, ctx, opts, scan, sb); err != nil {
						return err
					}
					sb.WriteString("${endif}")
					continue
				}
				return newErr(ErrMissingKey, "", "unresolved \"${if}\" condition")
			}
			branch := p.cond.els
			if truthy(cond.value) {
				branch = p.cond.then
			}
			if err := renderBlock(branch, ctx, opts, scan, sb); err != nil {
				return err
			}

		case p.isExpr:
			out, err := evalExpr(p.expr, ctx, scan)
			if err != nil {
				if opts.ScanOnly {
					continue
				}
				return err
			}
			if out.missing {
				switch {
				case opts.ScanOnly:
					continue
				case p.optional:
					continue
				case opts.AllowPartial:
					sb.WriteString(p.raw)
				default:
					return newErr(ErrMissingKey, p.raw, "unresolved reference")
				}
				continue
			}
			s, err := ctyToString(out.value)
			if err != nil {
				return err
			}
			sb.WriteString(s)

		default:
			sb.WriteString(p.literal)
		}
	}
	return nil
}

// exprSource is a best-effort re-rendering of a condition expression back
// into source form, used only when an unresolved "${if}" must be deferred.
// It covers the identifier-path case, which is by far the common one; other
// shapes fall back to a generic placeholder that still forces a later pass.
func exprSource(e Expr) string {
	if p, ok := e.(*PathExpr); ok {
		return pathKey(p.Segments)
	}
	return "..."
}
