package app

import "errors"

// Sentinel errors surfaced by the services. Handlers map them to HTTP
// statuses with errors.Is; the messages are the diagnostic text shown to
// callers.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoFile               = errors.New("no file provided")
	ErrNotPDF               = errors.New("only PDF files are allowed")
	ErrFileTooLarge         = errors.New("file size too large, maximum 10MB allowed")
	ErrEmptyQuestion        = errors.New("no question provided")
	ErrNoProcessedDocuments = errors.New("please process PDF documents first before asking questions")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrProfileNotFound      = errors.New("student profile not found")
	ErrUsernameExists       = errors.New("username already exists")
	ErrEmailExists          = errors.New("email already exists")
	ErrStudentIDExists      = errors.New("student id already exists")
	ErrPasswordMismatch     = errors.New("password fields do not match")
	ErrInvalidCredential    = errors.New("invalid username or password")
)
