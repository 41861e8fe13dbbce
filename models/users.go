package models

import "time"

const (
	RoleAdmin = 99
	RoleStaff = 89
)

const UserTypeStaff = "Staff"

// User is a staff credential holder. Admins carry role 99, floor staff 89.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"userId"`
	RestaurantCode  string    `gorm:"type:varchar(50);index" json:"restaurantCode"`
	UserName        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"userName"`
	StaffName       string    `gorm:"type:varchar(255)" json:"staffName"`
	Password        string    `gorm:"type:varchar(255);not null" json:"-"`
	Role            int       `gorm:"not null;default:89" json:"role"`
	MobileNumber    string    `gorm:"type:varchar(20)" json:"mobileNumber"`
	Address         string    `gorm:"type:varchar(255)" json:"address"`
	NIC             string    `gorm:"column:nic;type:varchar(50)" json:"nic"`
	ProfileImageURL string    `gorm:"type:varchar(255)" json:"profileImageUrl"`
	IsActive        bool      `gorm:"not null" json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func IsValidRole(role int) bool {
	return role == RoleAdmin || role == RoleStaff
}
