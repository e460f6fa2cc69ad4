// Package report persists crawl output.
//
// RecordWriter implementations render records as CSV (with a UTF-8 BOM and
// the comment stream encoded as JSON), as a JSON array, or as a Markdown
// report. SaveRecords writes a timestamped file and a "latest" file per
// format. ErrorLog records page and article failures to page_errors.log and
// keeps HTML snapshots of the markup that failed to parse. SimpleWriter
// prints run statistics for the terminal.
package report
