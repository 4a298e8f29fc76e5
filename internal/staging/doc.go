// Package staging owns the per-job scratch directories used while a preview
// or video is produced, and the sweeper that reclaims directories leaked by
// crashed processes.
package staging
