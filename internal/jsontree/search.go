package jsontree

// DefaultNodeBudget bounds how many nodes FindFirstKey visits.
const DefaultNodeBudget = 200_000

// FindFirstKey walks the tree with an explicit stack and returns the value of the
// first object member whose key is in keys. Members of an object are checked
// before descending; descent is depth-first, last child first.
// It returns nil when no key matches or when more than budget nodes are visited.
func FindFirstKey(root *Value, keys []string, budget int) *Value {
	if root == nil || len(keys) == 0 {
		return nil
	}
	if budget <= 0 {
		budget = DefaultNodeBudget
	}

	wanted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}

	stack := []*Value{root}
	seen := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		seen++
		if seen > budget {
			return nil
		}

		switch cur.Kind {
		case Object:
			for _, m := range cur.Members {
				if _, ok := wanted[m.Key]; ok {
					return m.Value
				}
				stack = append(stack, m.Value)
			}
		case Array:
			stack = append(stack, cur.Items...)
		}
	}
	return nil
}
