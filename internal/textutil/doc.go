// Package textutil provides small string helpers for object keys and
// filesystem-safe tokens.
package textutil
