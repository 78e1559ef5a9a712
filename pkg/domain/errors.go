package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrPasswordIncorrect = NewErr("PASSWORD_INCORRECT", "the given password is invalid", http.StatusUnauthorized)
	ErrAlreadyExists     = NewErr("ALREADY_EXISTS", "a paste with this url already exists", http.StatusBadRequest)
	ErrValue             = NewErr("VALUE_ERROR", "invalid url or content", http.StatusBadRequest)
	ErrNotFound          = NewErr("NOT_FOUND", "no paste with this url has been found", http.StatusNotFound)
	ErrOther             = NewErr("OTHER", "an unspecified error occured with the paste manager", http.StatusInternalServerError)
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }

func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

// Classify collapses any non-domain error to ErrOther so the transport
// layer only ever sees the five flat kinds.
func Classify(err error) *Err {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Err); ok {
		return e
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e
	}
	return ErrOther
}

func Status(err error) int {
	return Classify(err).Status
}

func ToReturn(err error) DefaultReturn[any] {
	e := Classify(err)
	return DefaultReturn[any]{
		Success: false,
		Message: e.Msg,
		Payload: nil,
	}
}
