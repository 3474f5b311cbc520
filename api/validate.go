package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"

	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/reports"
)

// requestValidator checks decoded bodies and renders failures in English,
// keyed by JSON field name.
type requestValidator struct {
	v     *validator.Validate
	trans ut.Translator
}

var bodies = newRequestValidator()

func newRequestValidator() *requestValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Money compares as a number; dates and timestamps as time.Time so
	// "required" sees the zero value.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, _ := f.Interface().(decimal.Decimal).Float64()
		return d
	}, decimal.Decimal{})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		return f.Interface().(domain.Date).Time
	}, domain.Date{})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		return f.Interface().(domain.Timestamp).Time
	}, domain.Timestamp{})

	// A Nullable validates as its pointer, so omitempty skips absent and
	// null values alike.
	v.RegisterCustomTypeFunc(nullableValue[string], domain.Nullable[string]{})
	v.RegisterCustomTypeFunc(nullableValue[uint], domain.Nullable[uint]{})
	v.RegisterCustomTypeFunc(nullableValue[int], domain.Nullable[int]{})
	v.RegisterCustomTypeFunc(nullableValue[domain.Date], domain.Nullable[domain.Date]{})
	v.RegisterCustomTypeFunc(nullableValue[domain.Timestamp], domain.Nullable[domain.Timestamp]{})

	v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(interface{ Valid() bool })
		return ok && e.Valid()
	})
	v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		_, ok := reports.ParseFrequency(fl.Field().String())
		return ok
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	en_translations.RegisterDefaultTranslations(v, trans)
	registerMessage(v, trans, "enum", "{0} has an unsupported value")
	registerMessage(v, trans, "frequency", "{0} must be daily, weekly or monthly")

	return &requestValidator{v: v, trans: trans}
}

func nullableValue[T any](f reflect.Value) any {
	return f.Interface().(domain.Nullable[T]).Value
}

func registerMessage(v *validator.Validate, trans ut.Translator, tag, text string) {
	v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error { return ut.Add(tag, text, true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field())
			return msg
		},
	)
}

// Struct validates s and returns a *domain.ValidationError on failure.
func (rv *requestValidator) Struct(s any) error {
	err := rv.v.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(rv.trans)
	}
	return &domain.ValidationError{Fields: fields}
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fieldError("body", "request body is required")
		}
		return fieldError("body", "invalid JSON: "+err.Error())
	}
	return bodies.Struct(v)
}

// decodeWithout is decode for bodies that must not carry the named keys.
func decodeWithout(r *http.Request, v any, forbidden ...string) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fieldError("body", "unreadable request body")
	}
	if len(body) == 0 {
		return fieldError("body", "request body is required")
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return fieldError("body", "invalid JSON: "+err.Error())
	}
	fields := map[string]string{}
	for _, k := range forbidden {
		if _, ok := keys[k]; ok {
			fields[k] = k + " is derived from payments and cannot be set"
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fieldError("body", "invalid JSON: "+err.Error())
	}
	return bodies.Struct(v)
}
