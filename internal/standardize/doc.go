// Package standardize normalizes raw extracted payloads into canonical
// records with a uniform location, date (YYYY-MM-DD), and time (HH:MM)
// identity plus one category-specific payload slot.
//
// The standardizer never fails a batch because of malformed rows: a row whose
// date or time cannot be normalized is dropped and counted, and unparseable
// numeric fields degrade to nil.
package standardize
