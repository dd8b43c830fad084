package models

import (
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

var folder = cases.Fold()

// Ingredient is a catalog entry with a fixed measurement unit.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:200;not null;uniqueIndex" json:"name" validate:"required,max=200"`
	MeasurementUnit string `gorm:"size:200;not null" json:"measurement_unit" validate:"required,max=200"`
	// SearchName is the case-folded name used for prefix search.
	SearchName string `gorm:"size:200;not null;index" json:"-"`
}

// FoldName returns the case-folded form of an ingredient name.
func FoldName(name string) string {
	return folder.String(name)
}

func (i *Ingredient) BeforeSave(tx *gorm.DB) error {
	i.SearchName = FoldName(i.Name)
	return nil
}
