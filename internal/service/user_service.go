package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"aichat-go/internal/model"
	"aichat-go/internal/repository"
	"aichat-go/pkg/hash"
	"aichat-go/pkg/log"
	"aichat-go/pkg/token"
)

// LoginResult 是登录成功后返回的用户信息与令牌。
type LoginResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// UpdateUserInput 描述可修改的用户字段，nil 表示不修改。
type UpdateUserInput struct {
	Name     *string
	Password *string
	Icon     *string
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(ctx context.Context, name, password, icon string) (*model.User, error)
	Login(ctx context.Context, name, password string) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, err error)
	Logout(ctx context.Context, accessToken string) error
	Update(ctx context.Context, userID int64, in UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, callerID, userID int64) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	blacklist  repository.TokenBlacklist
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。blacklist 可以为 nil。
func NewUserService(userRepo repository.UserRepository, blacklist repository.TokenBlacklist, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(ctx context.Context, name, password, icon string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, invalid("用户名和密码不能为空")
	}

	// 1. 检查用户名是否已被占用（包括已注销的账号）
	if err := s.checkNameFree(ctx, name); err != nil {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 入库
	newUser := &model.User{Name: name, Password: hashedPassword, Icon: icon}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, classify(ErrDatabase, err)
	}
	log.Infow("用户注册成功", "userId", newUser.ID, "name", name)
	return newUser, nil
}

func (s *userService) checkNameFree(ctx context.Context, name string) error {
	taken, err := s.userRepo.NameTaken(ctx, name)
	if err != nil {
		return classify(ErrDatabase, err)
	}
	if taken {
		return classify(ErrConflict, errors.New("用户名已存在"))
	}
	return nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, classify(ErrUnauthorized, errors.New("invalid credentials"))
		}
		return nil, classify(ErrDatabase, err)
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, classify(ErrUnauthorized, errors.New("invalid credentials"))
	}

	// 3. 生成 access token 和 refresh token
	access, refresh, err := s.jwtManager.GeneratePair(user.ID, user.Name)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyToken(refreshToken, token.TypeRefresh)
	if err != nil {
		return "", "", classify(ErrUnauthorized, errors.New("invalid refresh token"))
	}

	// 2. 检查用户是否仍然存在
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", classify(ErrUnauthorized, errors.New("user not found"))
		}
		return "", "", classify(ErrDatabase, err)
	}

	// 3. 签发新的 token
	return s.jwtManager.GeneratePair(user.ID, user.Name)
}

// Logout 把 access token 加入黑名单，直到它自然过期。
func (s *userService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtManager.VerifyToken(accessToken, token.TypeAccess)
	if err != nil {
		return classify(ErrUnauthorized, err)
	}
	if s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.Add(ctx, accessToken, time.Until(claims.ExpiresAt.Time)); err != nil {
		return classify(ErrDatabase, err)
	}
	return nil
}

// Update 修改调用者自己的用户名、密码或头像。
func (s *userService) Update(ctx context.Context, userID int64, in UpdateUserInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, classify(ErrNotFound, errors.New("用户不存在"))
		}
		return nil, classify(ErrDatabase, err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("用户名不能为空")
		}
		if name != user.Name {
			if err := s.checkNameFree(ctx, name); err != nil {
				return nil, err
			}
			user.Name = name
		}
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, invalid("密码不能为空")
		}
		hashed, err := hash.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if in.Icon != nil {
		user.Icon = *in.Icon
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, classify(ErrDatabase, err)
	}
	return user, nil
}

// Delete 软删除用户。只允许删除自己。
func (s *userService) Delete(ctx context.Context, callerID, userID int64) error {
	if callerID != userID {
		return classify(ErrUnauthorized, errors.New("只能删除自己的账号"))
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return classify(ErrNotFound, errors.New("用户不存在"))
		}
		return classify(ErrDatabase, err)
	}
	log.Infow("用户已删除", "userId", userID)
	return nil
}
