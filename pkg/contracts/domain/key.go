package domain

import "strings"

// keySeparator joins key parts. The unit separator cannot occur in
// spreadsheet text, so joined tuples never collide.
const keySeparator = "\x1f"

// NaturalKey is the ordered tuple of columns that identifies a logical
// entity (a day, a channel-day, an article) across successive exports.
type NaturalKey []string

// Tuple returns the composite key value of r.
func (k NaturalKey) Tuple(r *Record) string {
	return strings.Join(k.Values(r), keySeparator)
}

// Values returns the key column values of r, in key order.
func (k NaturalKey) Values(r *Record) []string {
	parts := make([]string, len(k))
	for i, col := range k {
		parts[i] = r.Value(col)
	}
	return parts
}

// Missing returns the key columns r does not set.
func (k NaturalKey) Missing(r *Record) []string {
	var missing []string
	for _, col := range k {
		if !r.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// With returns a new key extended by extra columns.
func (k NaturalKey) With(extra ...string) NaturalKey {
	out := make(NaturalKey, 0, len(k)+len(extra))
	out = append(out, k...)
	return append(out, extra...)
}

// String renders the key as "a+b".
func (k NaturalKey) String() string {
	return strings.Join(k, "+")
}
