package error

import "net/http"

// GenericError is implemented by every typed error that knows how to
// render itself as an HTTP response.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}

type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}

type ForbiddenError string

func (err ForbiddenError) Error() string {
	return string(err)
}

func (err ForbiddenError) ErrCode() string {
	return "FORBIDDEN"
}

func (err ForbiddenError) StatusCode() int {
	return http.StatusForbidden
}

// ServiceUnavailableError is returned while a bot or dependency is not ready.
type ServiceUnavailableError string

func (err ServiceUnavailableError) Error() string {
	return string(err)
}

func (err ServiceUnavailableError) ErrCode() string {
	return "SERVICE_UNAVAILABLE"
}

func (err ServiceUnavailableError) StatusCode() int {
	return http.StatusServiceUnavailable
}
