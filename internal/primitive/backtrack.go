package primitive

import "errors"

// ErrNoMatch is returned when no arrangement of per-spec nargs choices
// consumes the input tokens exactly.
var ErrNoMatch = errors.New("no arrangement of element specs matches input")

// Match is one element of a successful Backtrack search: the token slice
// it consumed and the value its Instantiate call already produced.
type Match struct {
	Tokens []string
	Value  any
}

// frame is one level of the explicit DFS stack used in place of
// recursion, so deeply nested unions/tuples cannot blow the Go call
// stack and so the search matches spec.md §4.C's description of an
// iterative algorithm.
type frame struct {
	specIndex  int
	remaining  []string
	candidates []int
	cursor     int
}

// Backtrack resolves the variable-arity ambiguity between a sequence of
// element Specs against a flat run of tokens.
//
// In one-shot mode (repeating=false) specs is consumed exactly once, in
// order (used for fixed-length arrays).
// In repeating mode specs is applied cyclically until tokens is
// exhausted, and success requires landing on a whole number of cycles
// (used for variable-length sequences and maps, where a map's two
// element specs — key, then value — repeat as pairs).
func Backtrack(specs []Spec, tokens []string, repeating bool) ([]Match, error) {
	if len(specs) == 0 {
		if len(tokens) == 0 {
			return nil, nil
		}

		return nil, ErrNoMatch
	}

	specAt := func(i int) Spec {
		if repeating {
			return specs[i%len(specs)]
		}

		return specs[i]
	}

	isTerminal := func(i int, remaining []string) bool {
		if len(remaining) != 0 {
			return false
		}

		if repeating {
			return i%len(specs) == 0
		}

		return i == len(specs)
	}

	hasSpecAt := func(i int) bool {
		if repeating {
			return true
		}

		return i < len(specs)
	}

	var stack []frame

	var chosen []Match

	push := func(i int, remaining []string) bool {
		if !hasSpecAt(i) {
			return false
		}

		cands := candidateCounts(specAt(i).Nargs, len(remaining))
		stack = append(stack, frame{specIndex: i, remaining: remaining, candidates: cands})

		return true
	}

	if isTerminal(0, tokens) {
		return nil, nil
	}

	if !push(0, tokens) {
		return nil, ErrNoMatch
	}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.cursor >= len(top.candidates) {
			stack = stack[:len(stack)-1]

			if len(chosen) > 0 {
				chosen = chosen[:len(chosen)-1]
			}

			continue
		}

		n := top.candidates[top.cursor]
		top.cursor++

		group := top.remaining[:n]
		rest := top.remaining[n:]

		spec := specAt(top.specIndex)

		if !choicesSatisfied(group, spec.Choices) {
			continue
		}

		value, err := spec.Instantiate(group)
		if err != nil {
			continue
		}

		chosen = append(chosen, Match{Tokens: group, Value: value})

		next := top.specIndex + 1
		if isTerminal(next, rest) {
			out := make([]Match, len(chosen))
			copy(out, chosen)

			return out, nil
		}

		if !push(next, rest) {
			chosen = chosen[:len(chosen)-1]

			continue
		}
	}

	return nil, ErrNoMatch
}

// candidateCounts lists, longest-first, the token counts worth trying for
// a given Nargs against `remaining` tokens still available. Longest-first
// makes the search greedy by default, backtracking to shorter counts only
// when a longer one fails later — matching spec.md's description of
// preferring to consume as much as a variable-arity spec can still make
// work.
func candidateCounts(n Nargs, remaining int) []int {
	if !n.Variable {
		if n.Count > remaining {
			return nil
		}

		return []int{n.Count}
	}

	out := make([]int, 0, remaining+1)
	for k := remaining; k >= 0; k-- {
		out = append(out, k)
	}

	return out
}

func choicesSatisfied(tokens []string, choices []string) bool {
	if len(choices) == 0 {
		return true
	}

	for _, t := range tokens {
		if !acceptsChoice(t, choices) {
			return false
		}
	}

	return true
}
