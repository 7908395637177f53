package warehouse

import "fmt"

// StorageError wraps a failed warehouse query. The engine never retries and
// never converts one into an empty result; callers decide how to surface it.
type StorageError struct {
	Source SourceID
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("warehouse query against %s failed: %v", e.Source, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(source SourceID, err error) error {
	return &StorageError{Source: source, Err: err}
}
