package apperr

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Metadata describes how a kind is surfaced over HTTP.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	ShowMessage   bool
}

var metadataByKind = map[Kind]Metadata{
	KindValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "اطلاعات ارسال‌شده نامعتبر است", ShowMessage: true},
	KindUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "احراز هویت لازم است", ShowMessage: true},
	KindForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "دسترسی مجاز نیست", ShowMessage: true},
	KindNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "مورد درخواستی یافت نشد", ShowMessage: true},
	KindConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "درخواست با وضعیت فعلی تداخل دارد", ShowMessage: true},
	KindInternal:     {HTTPStatus: http.StatusInternalServerError, PublicMessage: "خطای داخلی سرور", ShowMessage: false},
}

func MetadataFor(kind Kind) Metadata {
	if meta, ok := metadataByKind[kind]; ok {
		return meta
	}
	return metadataByKind[KindInternal]
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	kind    Kind
	message string
	fields  []FieldError
	context map[string]any
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{kind: kind, message: message, cause: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Internal(err error, message string) *Error { return Wrap(KindInternal, err, message) }

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Fields() []FieldError {
	if e == nil {
		return nil
	}
	return e.fields
}

// Context returns diagnostic fields; they are logged but never rendered to clients.
func (e *Error) Context() map[string]any {
	if e == nil {
		return nil
	}
	return e.context
}

func (e *Error) WithField(field, message string) *Error {
	e.fields = append(e.fields, FieldError{Field: field, Message: message})
	return e
}

func (e *Error) WithFields(fields []FieldError) *Error {
	e.fields = append(e.fields, fields...)
	return e
}

func (e *Error) WithContext(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf reports the kind of err, treating untyped errors as internal.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind()
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
