package compress

import "errors"

// ErrInvalidData is returned when compressed input is too short or
// internally inconsistent to decompress safely.
var ErrInvalidData = errors.New("compress: invalid compressed data")
