// Package treepath implements a positional algebra over comment-tree
// coordinates. A Path is the sequence of zero-based sibling indices locating
// a node within one fetched rendering of a reply tree; it is ephemeral and
// only meaningful against the fetch that produced it.
//
// All relations are defined in terms of the common-prefix length of the two
// paths, so they stay pure and need no access to the stored tree.
package treepath

// Path is an ordered sequence of zero-based sibling indices, one per tree
// level, root level first.
type Path []int

// commonPrefixLen returns the number of leading positions where a and b agree.
func commonPrefixLen(a, b Path) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	k := 0
	for k < n && a[k] == b[k] {
		k++
	}
	return k
}

// IsSelf reports whether a and b address the same node.
func IsSelf(a, b Path) bool {
	return len(a) == len(b) && commonPrefixLen(a, b) == len(a)
}

// IsAncestor reports whether a is a strict ancestor of b.
func IsAncestor(a, b Path) bool {
	return len(a) < len(b) && commonPrefixLen(a, b) == len(a)
}

// IsDescendant reports whether a is a strict descendant of b.
func IsDescendant(a, b Path) bool {
	return IsAncestor(b, a)
}

// IsParentOf reports whether a is the immediate parent of b.
func IsParentOf(a, b Path) bool {
	return IsAncestor(a, b) && len(b) == len(a)+1
}

// IsSibling reports whether a and b are distinct children of the same parent.
func IsSibling(a, b Path) bool {
	if len(a) != len(b) || len(a) < 1 {
		return false
	}
	return commonPrefixLen(a, b) == len(a)-1
}

// IsCousin reports whether a and b share a grandparent but not a parent.
func IsCousin(a, b Path) bool {
	if len(a) != len(b) || len(a) <= 2 {
		return false
	}
	k := commonPrefixLen(a, b)
	// Agreement must end exactly at the grandparent level: the second-to-last
	// index differs, everything before it matches.
	return k == len(a)-2
}

// UncleDegree returns how many generations separate u from being a direct
// uncle/aunt of n: 0 for a parent's sibling, 1 for a grandparent's sibling,
// and so on. The second result is false when the relation does not hold,
// including whenever u is an ancestor of n.
func UncleDegree(u, n Path) (int, bool) {
	if IsAncestor(u, n) {
		return 0, false
	}
	d := len(n) - len(u)
	if d < 1 {
		return 0, false
	}
	if !IsSibling(u, n[:len(u)]) {
		return 0, false
	}
	return d - 1, true
}

// NephewDegree is UncleDegree with the arguments relabeled: it reports how
// far n is below u's sibling line.
func NephewDegree(n, u Path) (int, bool) {
	return UncleDegree(u, n)
}

// IsHigherUp reports whether a renders above b in document order: ancestors
// come before their descendants, and earlier sibling branches come before
// later ones. It is a strict total order over the paths of one depth-first,
// sibling-order-preserving traversal.
func IsHigherUp(a, b Path) bool {
	k := commonPrefixLen(a, b)
	switch {
	case k == len(a) && k == len(b):
		return false // same node
	case k == len(a):
		return true // a is an ancestor of b
	case k == len(b):
		return false // b is an ancestor of a
	default:
		return a[k] < b[k]
	}
}
