package arrowio

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// SingleRecordReader is a RecordReader over exactly one in-memory record.
// One HTTP response decodes to one record, so statement execution yields
// a reader with a single batch.
type SingleRecordReader struct {
	record arrow.Record
	done   bool
}

// NewSingleRecordReader wraps record in a reader. The reader takes over
// the caller's reference; Release it when done.
func NewSingleRecordReader(record arrow.Record) *SingleRecordReader {
	return &SingleRecordReader{record: record}
}

// Schema returns the schema of the record.
func (r *SingleRecordReader) Schema() *arrow.Schema {
	return r.record.Schema()
}

// Next advances to the record; it succeeds exactly once.
func (r *SingleRecordReader) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}

// Record returns the current record.
func (r *SingleRecordReader) Record() arrow.Record {
	return r.record
}

// Err always returns nil; a fully materialized record cannot fail.
func (r *SingleRecordReader) Err() error {
	return nil
}

// Release releases the underlying record.
func (r *SingleRecordReader) Release() {
	r.record.Release()
}

// Retain increases the reference count of the record.
func (r *SingleRecordReader) Retain() {
	r.record.Retain()
}
