// Package validator wraps go-playground/validator with JSON field names,
// EN/ZH translations, and the custom rules used by rag-chat request models.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
	zhtrans "github.com/go-playground/validator/v10/translations/zh"
)

// Supported translation languages.
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator validates structs and translates failures into readable messages.
type Validator struct {
	validate    *validator.Validate
	uni         *ut.UniversalTranslator
	translators map[string]ut.Translator
}

var (
	global     *Validator
	globalOnce sync.Once
)

// Global returns the process-wide validator instance.
func Global() *Validator {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New creates a Validator with EN/ZH translators and custom rules registered.
func New() *Validator {
	validate := validator.New()

	// 错误消息使用 json 标签中的字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	zhLocale := zh.New()
	uni := ut.New(enLocale, enLocale, zhLocale)

	v := &Validator{
		validate:    validate,
		uni:         uni,
		translators: make(map[string]ut.Translator),
	}

	if trans, ok := uni.GetTranslator(LangEN); ok {
		v.translators[LangEN] = trans
		_ = entrans.RegisterDefaultTranslations(validate, trans)
	}
	if trans, ok := uni.GetTranslator(LangZH); ok {
		v.translators[LangZH] = trans
		_ = zhtrans.RegisterDefaultTranslations(validate, trans)
	}

	v.registerCustomRules()
	v.registerCustomTranslations()

	return v
}

// GetTranslator returns the translator for the given language, or nil.
func (v *Validator) GetTranslator(lang string) ut.Translator {
	return v.translators[lang]
}

// Struct validates the given struct and returns the first failure translated
// to English, or nil when the struct is valid.
func (v *Validator) Struct(s interface{}) error {
	return v.StructLang(s, LangEN)
}

// StructLang validates the given struct with messages in the given language.
func (v *Validator) StructLang(s interface{}, lang string) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}

	trans := v.GetTranslator(lang)
	if trans == nil {
		trans = v.GetTranslator(LangEN)
	}

	return &FieldError{
		Field:   errs[0].Field(),
		Tag:     errs[0].Tag(),
		Message: errs[0].Translate(trans),
	}
}

// TranslateAll validates the struct and returns every failure message.
func (v *Validator) TranslateAll(s interface{}, lang string) []string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	trans := v.GetTranslator(lang)
	if trans == nil {
		trans = v.GetTranslator(LangEN)
	}

	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fe.Translate(trans))
	}
	return messages
}

// FieldError describes a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return e.Message
}

// Struct validates a struct with the global validator.
func Struct(s interface{}) error {
	return Global().Struct(s)
}
