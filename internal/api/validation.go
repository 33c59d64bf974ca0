package api

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/safar/pos-store/internal/models"
	"github.com/shopspring/decimal"
)

const maxBarcodeLength = 64

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator
// and makes field errors use JSON names. Decimal fields validate as numbers
// so min and max apply to money.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		for tag, fn := range map[string]validator.Func{
			"barcode":     validateBarcode,
			"sale_status": validateSaleStatus,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic("register validation " + tag + ": " + err.Error())
			}
		}

		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
}

func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func validateBarcode(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" || len(value) > maxBarcodeLength {
		return false
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func validateSaleStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.SaleStatus(value).Valid()
}
