package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type requestError struct {
	code    string
	msg     string
	details []fieldError
}

func (e *requestError) write(w http.ResponseWriter) {
	writeErrorResponse(w, http.StatusBadRequest, errorResponse{Error: e.msg, Code: e.code, Details: e.details})
}

// decodeRequest reads a JSON body into dst and validates its struct tags.
// An empty body decodes as {} when allowEmpty is set. Anything after the
// first JSON value is rejected.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) *requestError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return &requestError{code: codeInvalidRequestBody, msg: "invalid request body"}
		}
	}
	// The body must hold exactly one JSON value.
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return &requestError{code: codeInvalidRequestBody, msg: "invalid request body"}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &requestError{code: codeInvalidRequestBody, msg: "invalid request body"}
		}
		details := make([]fieldError, 0, len(verrs))
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag()})
			fields = append(fields, fe.Field())
		}
		return &requestError{
			code:    codeValidationFailed,
			msg:     fmt.Sprintf("invalid fields: %s", strings.Join(fields, ", ")),
			details: details,
		}
	}
	return nil
}
