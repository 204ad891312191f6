package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category groups errors by the pipeline stage that produced them.
type Category string

const (
	CategoryFile        Category = "file"
	CategoryParse       Category = "parse"
	CategoryMapping     Category = "mapping"
	CategoryTransform   Category = "transform"
	CategoryPersistence Category = "persistence"
	CategoryNetwork     Category = "network"
	CategoryInternal    Category = "internal"
)

// Error carries a category alongside a user-presentable message. The
// message is what reaches the UI; Cause keeps the wrapped chain for logs.
type Error struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Cause    error    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode maps categories to CLI exit codes.
func (e *Error) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryMapping, CategoryTransform:
		return 3
	case CategoryPersistence:
		return 4
	case CategoryNetwork:
		return 5
	default:
		return 1
	}
}

func New(category Category, format string, args ...interface{}) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

func Wrap(cause error, category Category, format string, args ...interface{}) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Cause:    errors.WithStack(cause),
	}
}

// CategoryOf reports the category of err, or CategoryInternal when err is
// not an *Error.
func CategoryOf(err error) Category {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Category
	}
	return CategoryInternal
}

func FileError(format string, args ...interface{}) *Error {
	return New(CategoryFile, format, args...)
}

func ParseError(format string, args ...interface{}) *Error {
	return New(CategoryParse, format, args...)
}

func MappingError(format string, args ...interface{}) *Error {
	return New(CategoryMapping, format, args...)
}

func TransformError(format string, args ...interface{}) *Error {
	return New(CategoryTransform, format, args...)
}

func PersistenceError(cause error, format string, args ...interface{}) *Error {
	return Wrap(cause, CategoryPersistence, format, args...)
}

func NetworkError(cause error, format string, args ...interface{}) *Error {
	return Wrap(cause, CategoryNetwork, format, args...)
}
