package utils

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rivo/uniseg"
)

// MaxGraphemesValidator bounds a string field by grapheme clusters
// rather than bytes, e.g. `validate:"maxgraphemes=200"`.
func MaxGraphemesValidator(fl validator.FieldLevel) bool {

	max, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return uniseg.GraphemeClusterCount(fl.Field().String()) <= max

}
