package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
)

var validate *validator.Validate

func init() {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	validate = v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("civiltime", validateCivilTime); err != nil {
		return nil, fmt.Errorf("register civiltime: %w", err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v, nil
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s failed %q validation", fe.Field(), fe.Tag())
	}
	return err
}

func validateCivilTime(fl validator.FieldLevel) bool {
	_, err := civil.ParseTime(fl.Field().String())
	return err == nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid json body")
	}
	return nil
}
