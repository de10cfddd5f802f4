// Package contract holds the value types shared by every stage of a harvest
// run: contract identifiers, the closed outcome status enum, per-contract
// outcomes and the append-only outcome log.
package contract

// ID identifies a contract on the portal. Identifiers are compared byte for
// byte; no trimming or case folding is ever applied.
type ID string

// String returns the identifier as entered in the input sheet.
func (id ID) String() string { return string(id) }

// IsZero reports whether id is the empty "no identifier" value.
func (id ID) IsZero() bool { return id == "" }

// IDs converts raw strings to identifiers, keeping order and duplicates.
func IDs(raw ...string) []ID {
	out := make([]ID, len(raw))
	for i, s := range raw {
		out[i] = ID(s)
	}
	return out
}
