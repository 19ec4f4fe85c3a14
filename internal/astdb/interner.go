package astdb

// StringInterner maps strings to StrIDs. It is monotonic: once a string
// is interned it keeps the same id for the unit's lifetime, and entries
// are never removed, so a StrID obtained before a snapshot stays valid
// after it.
type StringInterner struct {
	byText []string
	ids    map[string]StrID
}

// NewStringInterner returns an empty interner.
func NewStringInterner() *StringInterner {
	return &StringInterner{
		ids: make(map[string]StrID),
	}
}

// Intern returns the StrID for s, assigning a new one if s has not been
// seen before.
func (in *StringInterner) Intern(s string) StrID {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := StrID(len(in.byText))
	in.byText = append(in.byText, s)
	in.ids[s] = id
	return id
}

// Lookup reverses a StrID back to its text. Returns false for any id
// outside this interner's range, including InvalidStrID; an in-range id
// from a different interner is not detected.
func (in *StringInterner) Lookup(id StrID) (string, bool) {
	if int(id) < 0 || int(id) >= len(in.byText) {
		return "", false
	}
	return in.byText[id], true
}

// Len reports how many distinct strings have been interned.
func (in *StringInterner) Len() int {
	return len(in.byText)
}
