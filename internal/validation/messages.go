package validation

// # Error Codes Reference
//
// A failed run surfaces exactly one message. MapError picks it:
//
//	COL001 - Missing column: a required column is absent
//	         Action: Check the file headers against the expected names
//	COL002 - Column not found: a positional fallback ran past the last column
//	         Action: Add the column or rename it so a rule can find it
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Invalid spreadsheet
//	FILE004 - No file
//	FILE005 - Empty file
//	RUN001 - System busy: too many concurrent runs
//	RUN002 - Request timeout
//	ERR000 - Unknown error
//
// Typed errors are matched with errors.As first. Everything else falls back
// to case-insensitive substring patterns; the first matching pattern wins.

import (
	"errors"
	"strings"
)

// UserMessage is the user-facing rendering of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the extract or raise server.max_upload_mb",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is delimited text with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "File is not a readable spreadsheet",
			Action:  "Re-save the workbook as .xlsx",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "A required file was not uploaded",
			Action:  "Upload both the catalog and the transactions file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "Too many reconciliations in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the logs",
	Code:    "ERR000",
}

// MapError converts err into a single user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var missing *MissingColumnError
	if errors.As(err, &missing) {
		return UserMessage{
			Message: missing.Error(),
			Action:  "Check the " + missing.Table + " file headers against the expected column names",
			Code:    "COL001",
		}
	}

	var notFound *ColumnNotFoundError
	if errors.As(err, &notFound) {
		return UserMessage{
			Message: notFound.Error(),
			Action:  "Add a " + notFound.Role + " column or rename it so it can be found",
			Code:    "COL002",
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}

// String renders the message on one line for terminals.
func (m UserMessage) String() string {
	s := m.Message
	if m.Action != "" {
		s += ". " + m.Action
	}
	if m.Code != "" {
		s += " (" + m.Code + ")"
	}
	return s
}
