/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package validation checks the structure of tbDEX messages and resources with struct tags.
//
// Besides the validator built-ins these tags are registered:
//
//	did        a DID URI
//	decimal    a non-negative decimal string
//	typeid     a TypeID
//	timestamp  an RFC 3339 date-time
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/TBD54566975/tbdex-go/pkg/doc/did"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/decimal"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/typeid"
)

//nolint:gochecknoglobals
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	mustRegister(v, "did", func(fl validator.FieldLevel) bool {
		_, err := did.Parse(fl.Field().String())

		return err == nil
	})

	mustRegister(v, "decimal", func(fl validator.FieldLevel) bool {
		return decimal.Valid(fl.Field().String())
	})

	mustRegister(v, "typeid", func(fl validator.FieldLevel) bool {
		_, _, err := typeid.Parse(fl.Field().String())

		return err == nil
	})

	mustRegister(v, "timestamp", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())

		return err == nil
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Struct validates s. Failures are MalformedMessage errors with one detail per failed field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return tbdexerr.Wrap(tbdexerr.MalformedMessage, err, "validate")
	}

	top := reflect.Indirect(reflect.ValueOf(s)).Type().Name() + "."

	details := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = describe(strings.TrimPrefix(fe.Namespace(), top), fe)
	}

	return tbdexerr.New(tbdexerr.MalformedMessage, "%d invalid field(s)", len(details)).WithDetails(details...)
}

func describe(path string, fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s", path, fe.Tag(), fe.Param())
	}

	return fmt.Sprintf("%s: failed %s", path, fe.Tag())
}
