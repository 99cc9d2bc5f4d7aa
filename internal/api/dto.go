package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 64 << 10

type CreateTripRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type ContentRequest struct {
	Content string `json:"content" validate:"required"`
}

type LikeRequest struct {
	Liked *bool `json:"liked" validate:"required"`
}

type CommentsEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode читает JSON-тело и проверяет его по тегам validate.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return validateDTO(dst)
}

func validateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			first := vErrs[0]
			return &domain.ValidationError{Field: first.Field(), Reason: fmt.Sprintf("failed on rule %q", first.Tag())}
		}
		return err
	}
	return nil
}
