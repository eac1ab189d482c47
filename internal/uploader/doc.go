// Package uploader batches finished-job descriptors and reports them to a
// remote stride server: a single long-lived consumer goroutine drains an
// inbox, accumulates up to maxBatch descriptors or aggregationTimeout
// since the first one in the batch (whichever comes first), then issues
// one POST per batch and fans the server's best-known-score replies back
// out to whichever callers asked for one.
package uploader
