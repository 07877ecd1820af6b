package user

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/shulehub/shule/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	// password policy
	pwdMinLen     = 4
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func registerValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	validate.RegisterStructValidation(updateUserStructValidation, UpdateUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// roleValidation checks that the provided role is in AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

func userStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok {
		validatePassword(nu.Password1, "password1", "Password1", nu.Username, nu.Email, sl)
	}
}

func updateUserStructValidation(sl validator.StructLevel) {
	if uu, ok := sl.Current().Interface().(UpdateUser); ok && uu.Password != "" {
		validatePassword(uu.Password, "password", "Password", uu.Username, uu.Email, sl)
	}
}

func validatePassword(pwd, fld, structFld, uname, email string, sl validator.StructLevel) {
	if len(pwd) < pwdMinLen {
		sl.ReportError(pwd, fld, structFld, pwdMinLenTag, "")
		return
	}
	getRatio := func(usrAttr string) float64 {
		return difflib.NewMatcher(strings.Split(strings.ToLower(pwd), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	for _, attr := range []string{uname, email} {
		if attr != "" && getRatio(attr) >= pwdMaxSim {
			sl.ReportError(pwd, fld, structFld, pwdAttrSimTag, "")
			return
		}
	}
}
