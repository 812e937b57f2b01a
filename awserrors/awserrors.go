// Package awserrors shapes errors the way AWS SDK clients expect them: an
// HTTP status plus a body whose __type field names the exception.
package awserrors

type Error struct {
	Code int
	Body ErrorBody
}

type ErrorBody struct {
	Type    string `json:"__type"`
	Message string
}

func Generate400Exception(typ, message string) *Error {
	return &Error{
		Code: 400,
		Body: ErrorBody{
			Type:    typ,
			Message: message,
		},
	}
}

func Generate500Exception(typ, message string) *Error {
	return &Error{
		Code: 500,
		Body: ErrorBody{
			Type:    typ,
			Message: message,
		},
	}
}

func InvalidArgumentException(message string) *Error {
	return Generate400Exception("InvalidArgumentException", message)
}

func SerializationException(message string) *Error {
	return Generate400Exception("SerializationException", message)
}

func ResourceNotFoundException(message string) *Error {
	return Generate400Exception("ResourceNotFoundException", message)
}
