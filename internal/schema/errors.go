package schema

import "errors"

// ErrNormalization is returned when a schema cannot be normalized, either
// because it is nil or because two keys collapse onto the same canonical name.
var ErrNormalization = errors.New("schema: normalization failed")
