// Package blob is the gateway to the object store that holds source audio,
// background templates and rendered outputs.
//
// Two backends implement Store: HTTPStore for an object storage REST API and
// LocalStore for a plain directory. Both report missing objects with
// services.ErrNotFound so callers can tell absence from transport failures.
package blob
