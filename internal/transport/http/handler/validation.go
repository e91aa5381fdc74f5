package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// fieldError mirrors the {type,msg,path,location} shape clients of the
// auth API already parse.
type fieldError struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// fieldRule names the JSON path and the message reported for a struct field.
type fieldRule struct {
	path string
	msg  string
}

var (
	registerRules = map[string]fieldRule{
		"Email":    {path: "email", msg: msgInvalidEmail},
		"Password": {path: "password", msg: msgPasswordLength},
	}
	loginRules = map[string]fieldRule{
		"Email":    {path: "email", msg: msgInvalidEmail},
		"Password": {path: "password", msg: msgPasswordMissing},
	}
)

// validationErrors turns a ShouldBindJSON error into field-level messages.
// Anything that is not a validator error means the body itself was unusable.
func validationErrors(err error, rules map[string]fieldRule) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Type: "body", Msg: msgInvalidBody, Location: "body"}}
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		rule, ok := rules[fe.StructField()]
		if !ok {
			rule = fieldRule{path: fe.Field(), msg: "Invalid value"}
		}
		out = append(out, fieldError{
			Type:     "field",
			Msg:      rule.msg,
			Path:     rule.path,
			Location: "body",
		})
	}
	return out
}
