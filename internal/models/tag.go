package models

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/validation"
)

// Tag labels recipes, e.g. breakfast or dinner.
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;not null;uniqueIndex" json:"name" validate:"required,max=200"`
	Color string `gorm:"size:7;not null;uniqueIndex" json:"color" validate:"required,tagcolor"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug" validate:"required,max=200,slug"`
}

func (t *Tag) BeforeSave(tx *gorm.DB) error {
	if err := validation.Struct(t); err != nil {
		return fmt.Errorf("invalid tag %q: %w", t.Slug, err)
	}
	return nil
}
