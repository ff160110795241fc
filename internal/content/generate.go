package content

import "math/rand"

// maxShuffleAttempts bounds re-shuffling before the forced swap.
const maxShuffleAttempts = 10

// Permutation returns a random permutation of 0..n-1 that is never the
// identity when n >= 2. After maxShuffleAttempts identity results, the first
// two positions are swapped.
func Permutation(rng *rand.Rand, n int) []int {
	p := identity(n)
	if n < 2 {
		return p
	}
	for i := 0; i < maxShuffleAttempts; i++ {
		rng.Shuffle(n, func(a, b int) { p[a], p[b] = p[b], p[a] })
		if !IsIdentity(p) {
			return p
		}
	}
	p[0], p[1] = p[1], p[0]
	return p
}

// IsIdentity reports whether p leaves every element in place.
func IsIdentity(p []int) bool {
	for i, v := range p {
		if i != v {
			return false
		}
	}
	return true
}

func identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Arrange reorders items by perm: out[i] = items[perm[i]].
func Arrange[T any](items []T, perm []int) []T {
	out := make([]T, len(perm))
	for i, src := range perm {
		out[i] = items[src]
	}
	return out
}

// sample picks n distinct indices from 0..size-1 in random order.
func sample(rng *rand.Rand, size, n int) []int {
	if n > size {
		n = size
	}
	return rng.Perm(size)[:n]
}

// PickBuildings returns n distinct buildings.
func (b *Bank) PickBuildings(rng *rand.Rand, n int) []Building {
	idx := sample(rng, len(b.Buildings), n)
	out := make([]Building, len(idx))
	for i, j := range idx {
		out[i] = b.Buildings[j]
	}
	return out
}

// PickPairs returns n distinct concept pairs.
func (b *Bank) PickPairs(rng *rand.Rand, n int) []Pair {
	idx := sample(rng, len(b.Pairs), n)
	out := make([]Pair, len(idx))
	for i, j := range idx {
		out[i] = b.Pairs[j]
	}
	return out
}

// PickPassage returns a passage title and n consecutive lines of it, in
// their correct order. n is capped at the passage length.
func (b *Bank) PickPassage(rng *rand.Rand, n int) (string, []string) {
	p := b.Passages[rng.Intn(len(b.Passages))]
	if n > len(p.Lines) {
		n = len(p.Lines)
	}
	start := 0
	if extra := len(p.Lines) - n; extra > 0 {
		start = rng.Intn(extra + 1)
	}
	lines := make([]string, n)
	copy(lines, p.Lines[start:start+n])
	return p.Title, lines
}

// PickSymbols returns n distinct pattern symbols.
func (b *Bank) PickSymbols(rng *rand.Rand, n int) []string {
	idx := sample(rng, len(b.Symbols), n)
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = b.Symbols[j]
	}
	return out
}

// Reply returns a fallback companion reply.
func (b *Bank) Reply(rng *rand.Rand) string {
	return b.Replies[rng.Intn(len(b.Replies))]
}

// Tip returns a fallback health tip.
func (b *Bank) Tip(rng *rand.Rand) string {
	if len(b.Tips) == 0 {
		return b.Persona.Greeting
	}
	return b.Tips[rng.Intn(len(b.Tips))]
}
