package types

// Substitutor carries the GenericTplID -> Type bindings collected by
// tpl_pattern_match over one call's argument list (§4.3 "Generic
// instantiation").
type Substitutor struct {
	bindings map[GenericTplID]Type
	variadic map[GenericTplID][]Type
}

func NewSubstitutor() *Substitutor {
	return &Substitutor{bindings: map[GenericTplID]Type{}, variadic: map[GenericTplID][]Type{}}
}

func (s *Substitutor) Bind(id GenericTplID, t Type) {
	if existing, ok := s.bindings[id]; ok {
		s.bindings[id] = Union(existing, t)
		return
	}
	s.bindings[id] = t
}

func (s *Substitutor) BindVariadic(id GenericTplID, ts []Type) {
	s.variadic[id] = append(s.variadic[id], ts...)
}

func (s *Substitutor) Lookup(id GenericTplID) (Type, bool) {
	t, ok := s.bindings[id]
	return t, ok
}

// TplPatternMatch walks param (which may itself contain TplRef/StrTplRef
// nodes nested inside arrays/tables/function types) against the concrete
// arg type, recording every template binding it finds.
func TplPatternMatch(param, arg Type, sub *Substitutor) {
	switch param.Kind {
	case KTplRef:
		sub.Bind(param.TplID, arg)
	case KVariadic:
		if param.Elem.Kind == KTplRef {
			sub.BindVariadic(param.Elem.TplID, []Type{arg})
			return
		}
		TplPatternMatch(*param.Elem, arg, sub)
	case KArray:
		if arg.Kind == KArray {
			TplPatternMatch(*param.Elem, *arg.Elem, sub)
		} else if arg.Kind == KTuple && len(arg.Elems) > 0 {
			TplPatternMatch(*param.Elem, arg.Elems[0], sub)
		}
	case KTableGeneric:
		if arg.Kind == KTableGeneric {
			for i := range param.Elems {
				if i < len(arg.Elems) {
					TplPatternMatch(param.Elems[i], arg.Elems[i], sub)
				}
			}
		}
	case KDocFunction:
		if arg.Kind == KDocFunction && param.DocFn != nil && arg.DocFn != nil {
			for i, p := range param.DocFn.Params {
				if i < len(arg.DocFn.Params) {
					TplPatternMatch(p.Type, arg.DocFn.Params[i].Type, sub)
				}
			}
			for i, r := range param.DocFn.Returns {
				if i < len(arg.DocFn.Returns) {
					TplPatternMatch(r, arg.DocFn.Returns[i], sub)
				}
			}
		}
	case KStrTplRef:
		if arg.Kind == KStringConst || arg.Kind == KDocStringConst {
			inner := arg.Str
			inner = trimAffix(inner, param.StrTplPrefix, param.StrTplSuffix)
			sub.Bind(param.StrTplID, StringConst(inner))
		}
	}
}

func trimAffix(s, prefix, suffix string) string {
	if len(s) >= len(prefix)+len(suffix) && hasAffix(s, prefix, suffix) {
		return s[len(prefix) : len(s)-len(suffix)]
	}
	return s
}

func hasAffix(s, prefix, suffix string) bool {
	return len(s) >= len(prefix) && len(s) >= len(suffix) &&
		s[:len(prefix)] == prefix && s[len(s)-len(suffix):] == suffix
}

// Apply substitutes every TplRef/StrTplRef/Variadic-of-TplRef occurrence in
// t with the substitutor's bindings. Unbound template parameters degrade
// to Unknown rather than panicking, matching the "finalize to Any" spirit
// of the unresolved-queue termination guarantee (applied here at the
// narrower scope of one instantiation).
func Apply(t Type, sub *Substitutor) Type {
	switch t.Kind {
	case KTplRef:
		if bound, ok := sub.Lookup(t.TplID); ok {
			return bound
		}
		if vs, ok := sub.variadic[t.TplID]; ok && len(vs) > 0 {
			return Union(vs...)
		}
		return Unknown()
	case KStrTplRef:
		if bound, ok := sub.Lookup(t.StrTplID); ok && (bound.Kind == KStringConst || bound.Kind == KDocStringConst) {
			return StringConst(t.StrTplPrefix + bound.Str + t.StrTplSuffix)
		}
		return String()
	case KArray:
		e := Apply(*t.Elem, sub)
		return Array(e)
	case KNullable:
		e := Apply(*t.Elem, sub)
		return Nullable(e)
	case KVariadic:
		if t.Elem.Kind == KTplRef {
			if vs, ok := sub.variadic[t.Elem.TplID]; ok {
				return Tuple(vs)
			}
		}
		e := Apply(*t.Elem, sub)
		return Variadic(e)
	case KTuple:
		out := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			out[i] = Apply(e, sub)
		}
		return Tuple(out)
	case KUnion:
		out := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			out[i] = Apply(e, sub)
		}
		return Union(out...)
	case KTableGeneric:
		out := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			out[i] = Apply(e, sub)
		}
		return Type{Kind: KTableGeneric, Elems: out}
	case KGeneric:
		out := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			out[i] = Apply(e, sub)
		}
		return Generic(t.DeclID, out)
	case KDocFunction:
		if t.DocFn == nil {
			return t
		}
		params := make([]Param, len(t.DocFn.Params))
		for i, p := range t.DocFn.Params {
			params[i] = Param{Name: p.Name, Optional: p.Optional, Type: Apply(p.Type, sub)}
		}
		rets := make([]Type, len(t.DocFn.Returns))
		for i, r := range t.DocFn.Returns {
			rets[i] = Apply(r, sub)
		}
		return DocFunction(DocFunctionShape{
			Params: params, Returns: rets,
			IsColonDefine: t.DocFn.IsColonDefine, IsAsync: t.DocFn.IsAsync, IsVararg: t.DocFn.IsVararg,
		})
	default:
		return t
	}
}

// InstantiateCall collects argument types against a generic DocFunction's
// params (adjusting the first slot for colon-call vs colon-define
// mismatch per §4.3) and returns the concrete, substituted DocFunction.
func InstantiateCall(fn DocFunctionShape, args []Type, calleeIsColonCall, defIsColonDefine bool) DocFunctionShape {
	sub := NewSubstitutor()
	params := fn.Params
	if calleeIsColonCall != defIsColonDefine {
		if calleeIsColonCall && !defIsColonDefine && len(params) > 0 {
			params = params[1:]
		} else if !calleeIsColonCall && defIsColonDefine {
			params = append([]Param{{Name: "self", Type: SelfInfer()}}, params...)
		}
	}
	for i, p := range params {
		if p.Type.Kind == KVariadic {
			rest := []Type{}
			if i < len(args) {
				rest = args[i:]
			}
			for _, a := range rest {
				TplPatternMatch(p.Type, a, sub)
			}
			break
		}
		if i < len(args) {
			TplPatternMatch(p.Type, args[i], sub)
		}
	}
	outParams := make([]Param, len(fn.Params))
	for i, p := range fn.Params {
		outParams[i] = Param{Name: p.Name, Optional: p.Optional, Type: Apply(p.Type, sub)}
	}
	outRets := make([]Type, len(fn.Returns))
	for i, r := range fn.Returns {
		outRets[i] = Apply(r, sub)
	}
	return DocFunctionShape{
		Params: outParams, Returns: outRets,
		IsColonDefine: fn.IsColonDefine, IsAsync: fn.IsAsync, IsVararg: fn.IsVararg,
	}
}
