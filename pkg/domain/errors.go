package domain

import "errors"

// ErrSurveyNotFound is returned when a loader has no survey with the requested id.
var ErrSurveyNotFound = errors.New("survey not found")

// ErrSessionNotFound is returned when an attempt id cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrResponseNotFound is returned when a stored response does not exist.
var ErrResponseNotFound = errors.New("response not found")

// ErrUnknownNodeKind is returned when decoding a node of an unsupported kind.
var ErrUnknownNodeKind = errors.New("unknown node kind")

// ErrInvalidAnswer is returned by answer validation. The engine itself never rejects answers.
var ErrInvalidAnswer = errors.New("invalid answer")

// ErrNotCompleted is returned when a result is requested for an unfinished attempt.
var ErrNotCompleted = errors.New("attempt not completed")

// ErrSurveyNotPublished is returned when starting an attempt on a survey that is not accepting responses.
var ErrSurveyNotPublished = errors.New("survey not published")
