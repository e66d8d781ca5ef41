// Package validate owns the process wide validator and its english translations.
// Transport binding and the survey schema both report problems through it so a
// range violation reads the same whether it came from a JSON body or a stored row
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	perr "likert/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// Service holds the validator and translator pair
type Service struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Service
)

// Get returns the singleton, building it on first use
func Get() *Service {
	once.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		// short forms; the defaults pluralise and mention "characters" for strings
		short(v, trans, "min", "{0} must be at least {1}")
		short(v, trans, "max", "{0} must be at most {1}")
		short(v, trans, "oneof", "{0} must be one of [{1}]")

		svc = &Service{Validator: v, Translator: trans}
	})
	return svc
}

// RegisterValidation registers a custom tag on the singleton
func RegisterValidation(tag string, fn validator.Func) error {
	return Get().Validator.RegisterValidation(tag, fn)
}

// Struct validates v and returns one detail per failing field, nil when valid.
// A non struct v yields a single detail describing the misuse
func Struct(v any) []perr.Detail {
	return details(Get().Validator.Struct(v), "")
}

// Check is Struct with misuse split out: err is non nil only when v is not a struct
func Check(v any) ([]perr.Detail, error) {
	err := Get().Validator.Struct(v)
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return nil, inv
	}
	return details(err, ""), nil
}

// Var validates a single value against tag and names it field in the message
func Var(field string, value any, tag string) *perr.Detail {
	ds := details(Get().Validator.Var(value, tag), field)
	if len(ds) == 0 {
		return nil
	}
	return &ds[0]
}

// Error folds details into a single validation error, first detail as message and field
func Error(ds []perr.Detail) error {
	if len(ds) == 0 {
		return nil
	}
	err := perr.WithField(perr.Validationf("%s", ds[0].Message), ds[0].Field)
	return perr.WithDetails(err, ds...)
}

func details(err error, field string) []perr.Detail {
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return []perr.Detail{{Field: field, Message: inv.Error()}}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []perr.Detail{{Field: field, Message: err.Error()}}
	}
	out := make([]perr.Detail, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		out = append(out, perr.Detail{Field: name, Message: Message(name, fe)})
	}
	return out
}

// Message renders fe for field using the registered translation, with a plain fallback
func Message(field string, fe FieldError) string {
	if msg, err := Get().Translator.T(fe.Tag(), field, fe.Param()); err == nil && msg != "" {
		return msg
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

func short(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
