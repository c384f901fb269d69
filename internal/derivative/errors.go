package derivative

import "fmt"

// MissingSourceError reports a configured source image that does not exist.
// It is the only error the pipeline treats as recoverable.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source not found: %s", e.Path)
}

// DecodeError reports a source that exists but cannot be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DirectoryError reports an output directory or file that cannot be created or written.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// EncodeError reports a codec failure for the given output.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
