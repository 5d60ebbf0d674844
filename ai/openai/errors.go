package openai

import "errors"

// ErrEmptyResponse is returned when the model produced no usable output.
var ErrEmptyResponse = errors.New("model returned an empty response")
