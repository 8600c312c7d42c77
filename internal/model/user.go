package model

import "gorm.io/gorm"

// User roles
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
	RoleAuthor UserRole = "author"
)

// User statuses
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type User struct {
	gorm.Model
	Name     string     `json:"name" gorm:"not null"`
	Email    string     `json:"email" gorm:"uniqueIndex;not null"`
	Password string     `json:"-" gorm:"not null"`
	Role     UserRole   `json:"role" gorm:"size:20;default:'author';not null"`
	Status   UserStatus `json:"status" gorm:"size:20;default:'active';not null"`
	Avatar   string     `json:"avatar"`

	Articles []Article `json:"-" gorm:"foreignKey:AuthorID"`
}

// CanManageArticle reports whether the user may modify the given article.
// Authors only touch their own articles, editors and admins touch everything.
func (u *User) CanManageArticle(a *Article) bool {
	if u.Role == RoleAdmin || u.Role == RoleEditor {
		return true
	}
	return a.AuthorID == u.ID
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":     u.ID,
		"name":   u.Name,
		"email":  u.Email,
		"role":   u.Role,
		"avatar": u.Avatar,
	}
}
