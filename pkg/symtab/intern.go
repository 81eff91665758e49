package symtab

import "github.com/cespare/xxhash/v2"

// Name is an interned identifier. The zero Name is anonymous.
type Name uint32

// Interner hands out one Name per distinct string.
type Interner struct {
	buckets map[uint64][]Name
	strs    []string
}

func NewInterner() *Interner {
	return &Interner{buckets: make(map[uint64][]Name), strs: []string{""}}
}

// Intern returns the Name for s, creating it on first use.
func (in *Interner) Intern(s string) Name {
	if s == "" {
		return 0
	}
	h := xxhash.Sum64String(s)
	for _, n := range in.buckets[h] {
		if in.strs[n] == s {
			return n
		}
	}
	n := Name(len(in.strs))
	in.strs = append(in.strs, s)
	in.buckets[h] = append(in.buckets[h], n)
	return n
}

// Lookup finds the Name for s without creating one.
func (in *Interner) Lookup(s string) (Name, bool) {
	if s == "" {
		return 0, false
	}
	for _, n := range in.buckets[xxhash.Sum64String(s)] {
		if in.strs[n] == s {
			return n, true
		}
	}
	return 0, false
}

func (in *Interner) String(n Name) string {
	if int(n) >= len(in.strs) {
		return ""
	}
	return in.strs[n]
}
