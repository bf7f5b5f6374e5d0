package analyzer

import "github.com/emmylua-go/analyzer/internal/ids"

// ReasonKind tags the retryable/permanent failure shapes spec.md §4.3's
// InferFailReason names. None/FieldNotFound/RecursiveInfer are terminal —
// they never get requeued; the rest name the entity whose resolution is
// still pending and are retried until it resolves or the queue drains dry.
type ReasonKind uint8

const (
	ReasonNone ReasonKind = iota
	ReasonFieldNotFound
	ReasonRecursiveInfer
	ReasonUnresolveDeclType
	ReasonUnresolveMemberType
	ReasonUnresolveExpr
	ReasonUnresolveSignatureReturn
	ReasonUnresolveDocType // doc-analyze's own addition: a forward @class/@alias reference
)

func (r ReasonKind) retryable() bool {
	switch r {
	case ReasonUnresolveDeclType, ReasonUnresolveMemberType, ReasonUnresolveExpr,
		ReasonUnresolveSignatureReturn, ReasonUnresolveDocType:
		return true
	default:
		return false
	}
}

// InferFailReason is the payload attached to one InferFailReason variant
// (spec.md §4.3): at most one of the id fields is meaningful, selected by
// Kind.
type InferFailReason struct {
	Kind      ReasonKind
	Decl      ids.DeclID
	Member    ids.MemberID
	Signature ids.SignatureID
	ExprFile  ids.FileID
	ExprSyn   int
	TypeName  string
}

// UnresolvedWork is one entry of the unresolved queue (spec.md §4.1 phase
// 6, §7): a file plus why some expression/member/signature in it could not
// be fully resolved on its first pass. retry re-attempts the piece of work
// that produced the reason and reports whether it made progress.
type UnresolvedWork struct {
	File   ids.FileID
	Reason InferFailReason
	retry  func(a *Analyzer) (resolved bool, next *InferFailReason)
	// finalize writes Any into whatever owner slot this work was trying to
	// resolve. Called once, only for work still unresolved once the fixed
	// point is reached.
	finalize func(a *Analyzer)
}

// drainUnresolved implements spec.md §7's fixed-point loop: at most
// min(len(queue), 10) passes over the queue, each pass re-attempting every
// still-unresolved item; an item with no retry function or whose Kind is
// terminal is finalized to Any immediately. A pass that resolves nothing
// ends the loop early and finalizes everything left to Any.
func (a *Analyzer) drainUnresolved(queue []UnresolvedWork) {
	maxPasses := len(queue)
	if maxPasses > 10 {
		maxPasses = 10
	}

	pending := make([]UnresolvedWork, 0, len(queue))
	for _, w := range queue {
		if w.retry != nil && w.Reason.Kind.retryable() {
			pending = append(pending, w)
		} else if w.finalize != nil {
			w.finalize(a)
		}
	}

	for pass := 0; pass < maxPasses && len(pending) > 0; pass++ {
		var next []UnresolvedWork
		progressed := false
		for _, w := range pending {
			resolved, reason := w.retry(a)
			if resolved {
				progressed = true
				continue
			}
			if reason != nil {
				w.Reason = *reason
			}
			next = append(next, w)
		}
		pending = next
		if !progressed {
			break
		}
	}

	// Every item still pending after the fixed point finalizes to Any
	// (spec.md §7: "remaining reasons are coerced to Any").
	for _, w := range pending {
		if w.finalize != nil {
			w.finalize(a)
		}
	}
}
