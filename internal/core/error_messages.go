package core

// error_messages.go maps technical errors to Hebrew messages with a support
// code. Users quote the code; support staff look it up here.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key (generic)             "duplicate key"
//	DB002 - National ID already registered      "graduates_teudat_zehut_active_key",
//	                                            "graduates.teudat_zehut"
//	DB003 - Unique constraint (generic)         "unique constraint", "violates unique"
//	DB004 - Connection refused                  "connection refused"
//	DB005 - Connection reset                    "connection reset"
//	DB006 - Timeout                             "timeout", "database is locked"
//	DB007 - Deadlock                            "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date                       "invalid date"
//	VAL002 - Row has no data                    "no recognized fields"
//	VAL003 - Malformed request                  "invalid request body"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large                    "file too large"
//	FILE002 - Unsupported format                "unsupported file format"
//	FILE004 - No file                           "no file provided"
//	FILE005 - Empty file                        "empty file"
//	FILE006 - Unreadable file                   "invalid file"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Nothing to import                  "empty import"
//	IMP002 - System busy                        "too many concurrent imports"
//	IMP003 - Request cancelled                  "context canceled"
//	IMP004 - Request timeout                    "context deadline exceeded"
//	IMP005 - Graduate not found                 "not found"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited                      "rate limit"
//
// ERR000 is the fallback. Check the application log for the original error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Constraint violations. The national ID patterns must precede the
	// generic ones since Postgres reports "duplicate key value violates
	// unique constraint" for every unique index.
	{
		pattern: "graduates_teudat_zehut_active_key",
		msg: UserMessage{
			Message: "בוגר עם תעודת זהות זו כבר קיים במערכת",
			Action:  "בדקו את השורה מול הרשומה הקיימת",
			Code:    "DB002",
		},
	},
	{
		pattern: "graduates.teudat_zehut",
		msg: UserMessage{
			Message: "בוגר עם תעודת זהות זו כבר קיים במערכת",
			Action:  "בדקו את השורה מול הרשומה הקיימת",
			Code:    "DB002",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "רשומה עם מזהה זה כבר קיימת",
			Action:  "בדקו כפילויות בקובץ",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "ערך שחייב להיות ייחודי כבר קיים",
			Action:  "בדקו כפילויות בקובץ",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "ערך שחייב להיות ייחודי כבר קיים",
			Action:  "בדקו כפילויות בקובץ",
			Code:    "DB003",
		},
	},

	// Connectivity
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "לא ניתן להתחבר למסד הנתונים",
			Action:  "נסו שוב בעוד מספר רגעים",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "החיבור למסד הנתונים נותק",
			Action:  "נסו שוב",
			Code:    "DB005",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "מסד הנתונים עסוק",
			Action:  "נסו שוב בעוד מספר רגעים",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "מסד הנתונים היה עסוק בפעולות מתנגשות",
			Action:  "נסו שוב",
			Code:    "DB007",
		},
	},

	// Request lifecycle. Listed before "timeout" so a cancelled context is
	// not reported as a database timeout.
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "הבקשה בוטלה",
			Action:  "נסו שוב",
			Code:    "IMP003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "הייבוא ארך זמן רב מדי",
			Action:  "נסו לחלק את הקובץ לקבצים קטנים יותר",
			Code:    "IMP004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "הפעולה ארכה זמן רב מדי",
			Action:  "נסו שוב מאוחר יותר",
			Code:    "DB006",
		},
	},

	// Validation
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "תאריך לא תקין",
			Action:  "השתמשו בפורמט DD/MM/YYYY",
			Code:    "VAL001",
		},
	},
	{
		pattern: "no recognized fields",
		msg: UserMessage{
			Message: "השורה אינה מכילה אף שדה מוכר",
			Action:  "ודאו שכותרות העמודות תואמות לקובץ הדוגמה",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "הבקשה אינה תקינה",
			Action:  "שלחו את השורות שהתקבלו מהתצוגה המקדימה",
			Code:    "VAL003",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "הקובץ חורג מגודל המקסימום (50MB)",
			Action:  "חלקו את הקובץ לקבצים קטנים יותר",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "סוג הקובץ אינו נתמך",
			Action:  "העלו קובץ CSV או Excel (xlsx או xls)",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "לא נבחר קובץ",
			Action:  "בחרו קובץ להעלאה",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "הקובץ ריק",
			Action:  "העלו קובץ עם שורת כותרת ושורות נתונים",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid file",
		msg: UserMessage{
			Message: "לא ניתן לקרוא את הקובץ",
			Action:  "ודאו שהקובץ תקין ונסו שוב",
			Code:    "FILE006",
		},
	},

	// Import
	{
		pattern: "empty import",
		msg: UserMessage{
			Message: "לא נבחרו שורות לייבוא",
			Action:  "בחרו לפחות שורה אחת",
			Code:    "IMP001",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "המערכת עמוסה בייבואים אחרים",
			Action:  "המתינו מעט ונסו שוב",
			Code:    "IMP002",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "הבוגר לא נמצא",
			Action:  "ייתכן שהרשומה נמחקה",
			Code:    "IMP005",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "יותר מדי בקשות",
			Action:  "המתינו מעט לפני שתנסו שוב",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "אירעה שגיאה בלתי צפויה",
	Action:  "נסו שוב או פנו לתמיכה",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. An error
// matching no pattern yields the ERR000 fallback; nil yields the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (קוד: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (קוד: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error returns the
// message; Unwrap exposes the original for logging and errors.Is.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
