// Package nodeinfo normalizes the several incompatible schema generations
// of a fediverse instance's self-description APIs into one logical view.
//
// Three remote documents are handled:
//   - The nodeinfo document (software identity, usage counts)
//   - The site response, which exists in two known API generations
//   - The federation-peers response, flat in older generations and split
//     into linked/allowed/blocked in newer ones
//
// Decoding is attempted against each known schema generation in a fixed
// preference order, newest first; the first schema that decodes without
// structural error is adopted. Callers use accessor methods and never
// branch on the matched generation themselves.
package nodeinfo
