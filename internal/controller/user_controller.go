package controller

import (
	"crypto/rand"
	"log"
	"math/big"
	"net/mail"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/database"
	"wheredjsplay_backend/pkg/email"
	"wheredjsplay_backend/pkg/utils/jwt"
)

// userLoginURL is where invitation emails point people to sign in.
var userLoginURL string

func InitUserController(frontendURL string) {
	userLoginURL = frontendURL + "/admin/login"
}

type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Avatar   string `json:"avatar"`
}

type UserStatusInput struct {
	Status string `json:"status"`
}

// userWithCount is the admin listing row, users joined with how many
// articles each has written.
type userWithCount struct {
	model.User
	ArticleCount int64 `json:"article_count"`
}

func userQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&model.User{}).
		Select("users.*, COUNT(a.id) AS article_count").
		Joins("LEFT JOIN articles a ON a.author_id = users.id AND a.deleted_at IS NULL").
		Group("users.id")
}

func ListUsers(c *fiber.Ctx) error {
	db := database.GetDB()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	countQ := db.Model(&model.User{})
	q := userQuery(db)
	if role := c.Query("role"); role != "" {
		q = q.Where("users.role = ?", role)
		countQ = countQ.Where("role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("users.status = ?", status)
		countQ = countQ.Where("status = ?", status)
	}

	var total int64
	if err := countQ.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch users",
		})
	}

	var users []userWithCount
	err := q.Order("users.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&users).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"users": users,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

// GetAuthors lists active users for author pickers, any authenticated role.
func GetAuthors(c *fiber.Ctx) error {
	var users []userWithCount
	err := userQuery(database.GetDB()).
		Where("users.status = ?", model.UserStatusActive).
		Order("users.name ASC").
		Scan(&users).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch authors",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  users,
	})
}

func GetUser(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	id, _ := strconv.Atoi(c.Params("id"))
	if claims.Role != string(model.RoleAdmin) && claims.UserID != uint(id) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   true,
			"message": "You can only view your own profile",
		})
	}

	var user model.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  user,
	})
}

func CreateUser(c *fiber.Ctx) error {
	input := new(UserInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Name, email and password are required",
		})
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid email format",
		})
	}

	var existing model.User
	if err := database.GetDB().Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "Email already exists",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not hash password",
		})
	}

	user := model.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     normalizeRole(input.Role),
		Status:   model.UserStatusActive,
		Avatar:   input.Avatar,
	}
	if input.Status == string(model.UserStatusInactive) {
		user.Status = model.UserStatusInactive
	}

	if err := database.GetDB().Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"error":   false,
		"message": "User created successfully",
		"data":    user.GetPublicProfile(),
	})
}

// InviteUser creates an account with a generated password and mails the
// credentials. A failed email never fails the request; the account exists
// either way and an admin can resend.
func InviteUser(c *fiber.Ctx) error {
	input := new(UserInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}
	if input.Name == "" || input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Name and email are required",
		})
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid email format",
		})
	}

	var existing model.User
	if err := database.GetDB().Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "Email already exists",
		})
	}

	password, err := generatePassword(12)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not generate password",
		})
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not hash password",
		})
	}

	user := model.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     normalizeRole(input.Role),
		Status:   model.UserStatusActive,
	}
	if err := database.GetDB().Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not create user",
		})
	}

	if email.GlobalEmailService != nil {
		data := email.UserInvitationData{
			Name:     user.Name,
			Email:    user.Email,
			Password: password,
			Role:     roleDisplayName(user.Role),
			LoginURL: userLoginURL,
		}
		go func(to string, data email.UserInvitationData) {
			if err := email.GlobalEmailService.SendUserInvitationEmail(to, data); err != nil {
				log.Printf("Failed to send invitation email to %s: %v", to, err)
			}
		}(user.Email, data)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"error":   false,
		"message": "User invited successfully",
		"data": fiber.Map{
			"id":     user.ID,
			"name":   user.Name,
			"email":  user.Email,
			"role":   user.Role,
			"status": user.Status,
		},
	})
}

func UpdateUser(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	id, _ := strconv.Atoi(c.Params("id"))
	if claims.Role != string(model.RoleAdmin) && claims.UserID != uint(id) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   true,
			"message": "You can only update your own profile",
		})
	}

	var user model.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "User not found",
		})
	}

	input := new(UserInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid email format",
			})
		}
		updates["email"] = input.Email
	}
	if input.Avatar != "" {
		updates["avatar"] = input.Avatar
	}
	// Role changes are an admin call, self-service updates can't escalate.
	if input.Role != "" && claims.Role == string(model.RoleAdmin) {
		updates["role"] = normalizeRole(input.Role)
	}
	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": "Could not hash password",
			})
		}
		updates["password"] = string(hashed)
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "No fields to update",
		})
	}

	if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not update user",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "User updated successfully",
		"data":    user.GetPublicProfile(),
	})
}

func UpdateUserStatus(c *fiber.Ctx) error {
	input := new(UserStatusInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid input",
		})
	}
	status := model.UserStatus(input.Status)
	if status != model.UserStatusActive && status != model.UserStatusInactive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Status must be 'active' or 'inactive'",
		})
	}

	res := database.GetDB().Model(&model.User{}).
		Where("id = ?", c.Params("id")).
		Update("status", status)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not update user status",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "User status updated to " + string(status),
	})
}

func DeleteUser(c *fiber.Ctx) error {
	db := database.GetDB()

	var user model.User
	if err := db.First(&user, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "User not found",
		})
	}

	var count int64
	db.Model(&model.Article{}).Where("author_id = ?", user.ID).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "Cannot delete a user who still has articles. Reassign or delete their articles first.",
		})
	}

	if err := db.Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not delete user",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "User deleted successfully",
	})
}

// GetUserArticles is the public author page listing.
func GetUserArticles(c *fiber.Ctx) error {
	db := database.GetDB()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	q := articleQuery(db).Where("articles.author_id = ?", c.Params("id"))
	if status := c.Query("status", "published"); status != "" && status != "all" {
		q = q.Where("articles.status = ?", status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch articles",
		})
	}

	var articles []articleWithRefs
	err := q.Order("articles.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&articles).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Could not fetch articles",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"articles": articles,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

func normalizeRole(role string) model.UserRole {
	switch model.UserRole(role) {
	case model.RoleAdmin, model.RoleEditor, model.RoleAuthor:
		return model.UserRole(role)
	}
	return model.RoleAuthor
}

func roleDisplayName(role model.UserRole) string {
	switch role {
	case model.RoleAdmin:
		return "Administrator"
	case model.RoleEditor:
		return "Editor"
	default:
		return "Author"
	}
}

const (
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordDigits  = "0123456789"
	passwordSpecial = "!@#$%^&*"
)

// generatePassword builds a random temporary password guaranteed to contain
// at least one character from each class.
func generatePassword(length int) (string, error) {
	classes := []string{passwordLower, passwordUpper, passwordDigits, passwordSpecial}
	all := passwordLower + passwordUpper + passwordDigits + passwordSpecial

	if length < len(classes) {
		length = len(classes)
	}

	chars := make([]byte, 0, length)
	for _, class := range classes {
		ch, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, ch)
	}
	for len(chars) < length {
		ch, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, ch)
	}

	// Shuffle so the guaranteed characters don't sit at the front.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
