package formula

// Eval computes the truth value of f under vals, which maps variable
// names to truth values. Every variable name is looked up through
// vals, so vals alone decides the value of names it does not know.
func Eval(f *Node, vals func(name string) bool) bool {
	switch f.Op {
	case OpVar:
		return vals(f.Name)
	case OpConst:
		return f.Value
	case OpNot:
		return !Eval(f.Children[0], vals)
	case OpAnd:
		for _, ch := range f.Children {
			if !Eval(ch, vals) {
				return false
			}
		}
		return true
	case OpOr:
		for _, ch := range f.Children {
			if Eval(ch, vals) {
				return true
			}
		}
		return false
	case OpXor:
		parity := false
		for _, ch := range f.Children {
			if Eval(ch, vals) {
				parity = !parity
			}
		}
		return parity
	case OpImplies:
		return !Eval(f.Children[0], vals) || Eval(f.Children[1], vals)
	case OpIff:
		return Eval(f.Children[0], vals) == Eval(f.Children[1], vals)
	default:
		return false
	}
}
