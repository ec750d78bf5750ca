package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/api/middleware"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/api/validate"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/model"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Handler 提供注册、登录与当前用户查询接口。
type Handler struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewHandler 创建 Auth Handler。
func NewHandler(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &Handler{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// userSummary 公开的用户信息，绝不包含密码哈希。
type userSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

// Register 创建新用户并直接签发 Token。
//
// 用户名/邮箱的预检查只负责给出具体的冲突提示；唯一索引才是防重的
// 最终保证，插入竞态失败时同样按冲突处理。
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !validate.BindJSON(c, &req) {
		return
	}

	var fieldErrors []validate.FieldError
	if fe := validate.Username(req.Username); fe != nil {
		fieldErrors = append(fieldErrors, *fe)
	}
	if fe := validate.Password(req.Password); fe != nil {
		fieldErrors = append(fieldErrors, *fe)
	}
	if len(fieldErrors) > 0 {
		validate.Fail(c, fieldErrors)
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var existing model.User
	err := h.db.Where("email = ? OR username = ?", email, username).First(&existing).Error
	if err == nil {
		msg := "Username already taken"
		if existing.Email == email {
			msg = "Email already registered"
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.Error("query user failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during registration"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during registration"})
		return
	}

	user := model.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 预检查之后、插入之前被并发注册抢先。
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email or username already registered"})
			return
		}
		h.logger.Error("create user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during registration"})
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during registration"})
		return
	}

	metrics.RegistrationsTotal.Inc()
	h.logger.Info("user registered", slog.String("username", username))
	c.JSON(http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    summarize(&user),
	})
}

// Login 校验凭证并返回 JWT。
//
// 无论是标识不存在还是密码不匹配，都返回同一条 "Invalid credentials"，
// 避免暴露账号是否存在。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !validate.BindJSON(c, &req) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	username := strings.TrimSpace(req.Username)

	loginField := username
	if email != "" && strings.Contains(email, "@") {
		loginField = email
	}
	if loginField == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email or username is required"})
		return
	}

	var user model.User
	if err := h.db.Where("email = ? OR username = ?", loginField, loginField).First(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("username", user.Username), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during login"})
		return
	}

	metrics.LoginsTotal.Inc()
	h.logger.Info("user logged in", slog.String("username", user.Username))
	c.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    summarize(&user),
	})
}

// Me 返回当前认证用户的公开信息。
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.UserID(c)

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.logger.Error("query user failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": summarize(&user)})
}

func (h *Handler) issueToken(userID uint) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

func summarize(u *model.User) userSummary {
	return userSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
