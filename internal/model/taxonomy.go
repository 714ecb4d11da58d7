package model

// Tags and categories are informational associations used for filtering and
// selection constraints; the engine never derives scoring from them.

// swagger:model Tag
type Tag struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Tag) TableName() string {
	return "tags"
}

// swagger:model Category
type Category struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string {
	return "categories"
}
