// Package database 负责构建 MySQL 连接池与 Redis 客户端。
package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	drivermysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aichat-go/internal/config"
	"aichat-go/pkg/log"
)

// BuildDSN 根据分项配置拼接 MySQL DSN；cfg.DSN 非空时直接返回。
func BuildDSN(cfg config.MySQLConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	dc := drivermysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.DBName = cfg.Database
	dc.ParseTime = true
	dc.Loc = time.Local
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}

// NewMySQL 打开一个固定大小的 MySQL 连接池。
func NewMySQL(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(BuildDSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := ConfigurePool(db, cfg.PoolSize); err != nil {
		return nil, err
	}
	log.Infof("MySQL database connected successfully, pool_size=%d", cfg.PoolSize)
	return db, nil
}

// ConfigurePool 把连接池固定为 size 个连接。
func ConfigurePool(db *gorm.DB, size int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(size)
	sqlDB.SetMaxIdleConns(size)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}

// WithConn 从连接池取出一个连接执行 fn，并在任何返回路径上归还。
// 取连接失败时 fn 不会被调用，也不会尝试归还。
// 连接池耗尽时阻塞，直到有连接可用或 ctx 结束。
func WithConn(ctx context.Context, db *gorm.DB, fn func(conn *gorm.DB) error) error {
	return db.WithContext(ctx).Connection(fn)
}

// Migrate 自动建表。
func Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close 关闭底层连接池。
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
