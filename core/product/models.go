package product

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

// Category is the closed set of product categories.
type Category string

const (
	CategoryDecor      Category = "decor"
	CategoryReligious  Category = "religious"
	CategoryHandicraft Category = "handicraft"
	CategoryMusical    Category = "musical"
	CategoryAntique    Category = "antique"
	CategoryOthers     Category = "others"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDecor, CategoryReligious, CategoryHandicraft, CategoryMusical, CategoryAntique, CategoryOthers:
		return true
	}
	return false
}

type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       string    `json:"price" db:"price"` // decimal with 2 places, eg. "1499.99"
	Company     string    `json:"company" db:"company"`
	Stock       int       `json:"stock" db:"stock"`
	Category    Category  `json:"category" db:"category"`
	ImagePath   string    `json:"-" db:"image_path"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type NewProduct struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	Price       string   `json:"price" validate:"required,numeric"`
	Company     string   `json:"company" validate:"omitempty,max=100"`
	Stock       int      `json:"stock" validate:"min=0"`
	Category    Category `json:"category" validate:"required,category"`
}

func (np *NewProduct) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Company = core.CleanString(np.Company)
	return validate.Struct(np)
}

type UpdateProduct struct {
	Name        string   `json:"name" validate:"omitempty,max=255"`
	Description string   `json:"description"`
	Price       string   `json:"price" validate:"omitempty,numeric"`
	Company     string   `json:"company" validate:"omitempty,max=100"`
	Stock       *int     `json:"stock" validate:"omitempty,min=0"`
	Category    Category `json:"category" validate:"omitempty,category"`
	IsActive    *bool    `json:"is_active"`
}

func (up *UpdateProduct) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	up.Company = core.CleanString(up.Company)
	return validate.Struct(up)
}

var (
	categoryTag  = "category"
	categoryText = "invalid product category"
)

// InitValidators registers product-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).Valid()
}
