// Package songprovider resolves word-level lyric timings from the song
// generation provider.
//
// Provider records are inconsistent: the track list and the alignment array
// appear under several names in both camelCase and snake_case. Lookups walk
// ordered path tables and take the first non-empty array. The Resolver never
// returns an error; a Result carries the reason timings were unavailable.
package songprovider
