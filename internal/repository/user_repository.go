package repository

import (
	"context"

	"gorm.io/gorm"

	"aichat-go/internal/model"
	"aichat-go/pkg/database"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByName(ctx context.Context, name string) (*model.User, error)
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	NameTaken(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, userID int64) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录。
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Create(user).Error
	})
}

// FindByName 根据用户名查找一个未删除的用户。
func (r *userRepository) FindByName(ctx context.Context, name string) (*model.User, error) {
	var user model.User
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Where("name = ?", name).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.First(&user, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// NameTaken 报告用户名是否已被占用。软删除的用户仍占着唯一索引，也算占用。
func (r *userRepository) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Unscoped().Model(&model.User{}).Where("name = ?", name).Count(&count).Error
	})
	return count > 0, err
}

// Update 更新数据库中一个已存在的用户记录。
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Save(user).Error
	})
}

// Delete 软删除一个用户。
func (r *userRepository) Delete(ctx context.Context, userID int64) error {
	return database.WithConn(ctx, r.db, func(conn *gorm.DB) error {
		res := conn.Delete(&model.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
