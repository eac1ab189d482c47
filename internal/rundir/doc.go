// Package rundir manages the on-disk run directory: a uniquely timestamped
// root per invocation, a "latest" symlink, and per-instance working
// directories handed out to the job processor.
//
// Directory creation goes through afero.Fs. On a filesystem without
// symlink support, such as afero's in-memory one, the "latest" link is
// skipped.
package rundir
