package model

// swagger:model Course
type Course struct {
	BaseModel
	Name        string `gorm:"size:255;not null" json:"name"`
	Code        string `gorm:"size:50;unique;not null" json:"code"`
	Description string `gorm:"type:text" json:"description"`
	Department  string `gorm:"size:100" json:"department"`
	Semester    string `gorm:"size:50" json:"semester"`
	CreatedBy   uint   `gorm:"index;type:bigint unsigned" json:"createdBy"`
}

func (Course) TableName() string {
	return "courses"
}
