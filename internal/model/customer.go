package model

// Customer は受注先の顧客
type Customer struct {
	Base
	Name     string  `json:"name" gorm:"type:varchar(255);not null"`
	Email    string  `json:"email" gorm:"type:varchar(191);uniqueIndex;not null"`
	Phone    *string `json:"phone" gorm:"type:varchar(50)"`
	Document *string `json:"document" gorm:"type:varchar(50)"`
	Address  *string `json:"address" gorm:"type:varchar(255)"`
	City     *string `json:"city" gorm:"type:varchar(100)"`
	State    *string `json:"state" gorm:"type:varchar(100)"`
	ZipCode  *string `json:"zipCode" gorm:"type:varchar(20)"`
}
