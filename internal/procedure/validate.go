package procedure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/folio/internal/model"
)

// validate は入力構造体のvalidateタグを検証する。
// エラーメッセージにはjsonタグ名を使用する。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// RegisterValidation はカスタム検証タグを登録する。
// 起動時（init等）にのみ呼び出すこと。
func RegisterValidation(tag string, fn func(value string) bool) error {
	return validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return fn(fl.Field().String())
	})
}

// validateInput は入力を検証し、不正な場合はKindInvalidInputのエラーを返す。
// 構造体以外の入力は検証しない。
func validateInput(in any) error {
	v := reflect.ValueOf(in)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(v.Interface())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag())
		}
		return model.NewInvalidInputError(strings.Join(fields, ", "))
	}
	return model.NewInvalidInputError(err.Error())
}

// decodeInput は生のJSON入力を厳密にデコードする。
// 空入力とnullはゼロ値として扱い、未知のフィールドや余分なデータは不正とする。
func decodeInput[In any](raw json.RawMessage) (In, error) {
	var in In

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return in, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, model.NewInvalidInputError(err.Error())
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return in, model.NewInvalidInputError("unexpected data after input")
	}

	return in, nil
}
