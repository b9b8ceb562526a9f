package httphandler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

type addProductForm struct {
	Name            string `form:"name" validate:"required,max=50"`
	Price           string `form:"price" validate:"required,numeric"`
	Description     string `form:"description" validate:"required"`
	CarbonFootprint string `form:"carbon_footprint" validate:"required,numeric"`
}

func parseAddProductForm(r *http.Request) addProductForm {
	return addProductForm{
		Name:            r.PostFormValue("name"),
		Price:           r.PostFormValue("price"),
		Description:     r.PostFormValue("description"),
		CarbonFootprint: r.PostFormValue("carbon_footprint"),
	}
}

type checkoutForm struct {
	CardName   string `form:"card_name" validate:"required"`
	CardNumber string `form:"card_number" validate:"required,len=16"`
	CVV        string `form:"cvv" validate:"required,len=3"`
}

func parseCheckoutForm(r *http.Request) checkoutForm {
	return checkoutForm{
		CardName:   r.PostFormValue("card_name"),
		CardNumber: r.PostFormValue("card_number"),
		CVV:        r.PostFormValue("cvv"),
	}
}

type loginForm struct {
	Username   string `form:"username" validate:"required"`
	Password   string `form:"password" validate:"required"`
	RememberMe bool   `form:"remember_me"`
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Username:   r.PostFormValue("username"),
		Password:   r.PostFormValue("password"),
		RememberMe: r.PostFormValue("remember_me") != "",
	}
}

type signupForm struct {
	Username string `form:"username" validate:"required,min=4,max=16"`
	Password string `form:"password" validate:"required,min=4,max=16"`
	Confirm  string `form:"confirm" validate:"required,eqfield=Password"`
}

func parseSignupForm(r *http.Request) signupForm {
	return signupForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}
}

// validateForm returns the messages keyed by form field name, or nil when
// the form is valid.
func validateForm(form any) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}

	msgs := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msgs[fe.Field()] = fieldMessage(fe)
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "len":
		return fmt.Sprintf("Must be exactly %s characters long.", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", fe.Param())
	case "numeric":
		return "Must be a number."
	case "eqfield":
		return "Passwords must match."
	}
	return "Invalid value."
}
