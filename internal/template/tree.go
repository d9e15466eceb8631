package template

// ResolveTree walks a value tree (as produced by a YAML decode: map[string]any,
// []any, string, or a primitive) and resolves every string in place. An
// object key equal to "$merge" is expected to resolve to a mapping that is
// spread into its enclosing object; merges are applied depth-first,
// leaves-first, so a literal key appearing alongside "$merge" in the same
// object overrides whatever that merge produced.
func ResolveTree(tree any, ctx Context, opts Options) (any, error) {
	return resolveTreeWithScan(tree, ctx, opts, nil)
}

// ScanTree is ResolveTree's scanning counterpart: it never fails on a
// missing key (a malformed template still returns an error) and returns
// every context key path touched anywhere in the tree.
func ScanTree(tree any, ctx Context) (*ScanResult, error) {
	sr := newScanResult()
	_, err := resolveTreeWithScan(tree, ctx, Options{AllowPartial: true, ScanOnly: true}, sr)
	return sr, err
}

const mergeKey = "$merge"

func resolveTreeWithScan(tree any, ctx Context, opts Options, scan *ScanResult) (any, error) {
	switch v := tree.(type) {
	case string:
		return resolveWithScan(v, ctx, opts, scan)

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			r, err := resolveTreeWithScan(e, ctx, opts, scan)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil

	case map[string]any:
		result := map[string]any{}
		for k, e := range v {
			if k == mergeKey {
				continue
			}
			r, err := resolveTreeWithScan(e, ctx, opts, scan)
			if err != nil {
				return nil, err
			}
			result[k] = r
		}
		if mergeExpr, ok := v[mergeKey]; ok {
			merged, err := resolveTreeWithScan(mergeExpr, ctx, opts, scan)
			if err != nil {
				return nil, err
			}
			mergedMap, ok := merged.(map[string]any)
			if !ok {
				if opts.ScanOnly {
					return result, nil
				}
				return nil, newErr(ErrTypeMismatch, mergeKey, "\"$merge\" must resolve to a mapping")
			}
			for k, e := range mergedMap {
				if _, overridden := result[k]; !overridden {
					result[k] = e
				}
			}
		}
		return result, nil

	default:
		return v, nil
	}
}
