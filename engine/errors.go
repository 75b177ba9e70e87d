package engine

import (
	"errors"
	"fmt"
)

// ErrCastCancelled indicates the user dismissed the cast device picker. Callers revert to the
// not-connected state without logging it as a failure.
var ErrCastCancelled = errors.New("cast cancelled by user")

// Category groups engine error codes by origin.
type Category int

const (
	CategoryNetwork   Category = 1
	CategoryText      Category = 2
	CategoryMedia     Category = 3
	CategoryManifest  Category = 4
	CategoryStreaming Category = 5
	CategoryDRM       Category = 6
	CategoryPlayer    Category = 7
	CategoryCast      Category = 8
)

// Code identifies a specific engine failure. The numbering follows the engine's convention:
// the thousands digit is the category.
type Code int

const (
	CodeUnsupportedScheme Code = 1000
	CodeBadHTTPStatus     Code = 1001
	CodeHTTPError         Code = 1002
	CodeTimeout           Code = 1003

	CodeMediaSourceFailure Code = 3014
	CodeVideoError         Code = 3016

	CodeManifestParserError Code = 4000
	CodeManifestInvalid     Code = 4001

	CodeKeySystemUnavailable  Code = 6001
	CodeDRMSchemeUnsupported  Code = 6002
	CodeLicenseRequestFailed  Code = 6007

	CodeLoadInterrupted Code = 7000
)

// Error is a structured engine failure. It is the payload of EventError and the value stored in
// the state store's error field.
type Error struct {
	Code     Code
	Category Category
	Message  string
}

// NewError constructs an Error, deriving the category from the code.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:     code,
		Category: Category(int(code) / 1000),
		Message:  message,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// FormattedError is a user-facing rendering of an engine failure.
type FormattedError struct {
	Title   string
	Message string
	Code    Code
}

// Format maps an engine error to a user-friendly title and message. Unknown codes fall back to a
// generic description carrying the raw code for support purposes.
func Format(err *Error) FormattedError {
	title := "Playback Error"
	message := fmt.Sprintf("An unexpected issue occurred. Please try again. (Code: %d)", err.Code)

	switch err.Code {
	case CodeBadHTTPStatus, CodeHTTPError, CodeTimeout:
		title = "Network Problem"
		message = "There was a problem connecting to the video server. Please check your internet connection."

	case CodeManifestParserError, CodeManifestInvalid, CodeUnsupportedScheme:
		title = "Invalid Video File"
		message = "This video file is either corrupted or in a format that can't be played on your device."

	case CodeMediaSourceFailure, CodeVideoError:
		title = "Media Playback Error"
		message = "Your browser encountered a problem while trying to play this video."

	case CodeKeySystemUnavailable, CodeDRMSchemeUnsupported, CodeLicenseRequestFailed:
		title = "Content Protection Error"
		message = "This video is protected and we were unable to load the license required to play it."

	case CodeLoadInterrupted:
		title = "Loading Canceled"
		message = "The video loading was canceled. Please try again."
	}

	return FormattedError{Title: title, Message: message, Code: err.Code}
}
