package domain

import "errors"

var (
	ErrPromptEmpty          = errors.New("prompt text is empty")
	ErrGeneratorUnavailable = errors.New("ai provider unavailable")
	ErrRateLimited          = errors.New("too many prompts, try again later")
	ErrUnparsableResponse   = errors.New("ai response was not valid json")
)
