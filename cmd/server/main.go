// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"aichat-go/internal/config"
	"aichat-go/internal/handler"
	"aichat-go/internal/middleware"
	"aichat-go/internal/model"
	"aichat-go/internal/repository"
	"aichat-go/internal/service"
	"aichat-go/pkg/database"
	"aichat-go/pkg/kafka"
	"aichat-go/pkg/llm"
	"aichat-go/pkg/log"
	"aichat-go/pkg/storage"
	"aichat-go/pkg/token"
	"aichat-go/pkg/tts"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	if err := log.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("日志记录器初始化成功")
	if cfg.LLM.ModelPath != "" {
		log.Infof("模型权重路径: %s", cfg.LLM.ModelPath)
	}

	// 3. 初始化数据库连接池和 Redis，进程内只构建一次
	db, err := database.NewMySQL(cfg.Database.MySQL)
	if err != nil {
		log.Fatal("MySQL 初始化失败", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Errorf("关闭 MySQL 连接池失败: %v", err)
		}
	}()
	if cfg.Database.MySQL.AutoMigrate {
		if err := database.Migrate(db, &model.Chat{}, &model.Prompt{}, &model.Session{}, &model.User{}); err != nil {
			log.Fatal("数据库迁移失败", err)
		}
	}
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 4. 初始化 Repository
	chatRepo := repository.NewChatRepository(db)
	promptRepo := repository.NewPromptRepository(db, repository.NewRedisPromptCache(rdb, cfg.Database.Redis.PromptTTL), cfg.Chat.DefaultPrompt)
	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	blacklist := repository.NewRedisTokenBlacklist(rdb)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	llmClient := llm.NewClient(cfg.LLM)
	historyService := service.NewHistoryService(chatRepo)
	sessionService := service.NewSessionService(sessionRepo, promptRepo)
	userService := service.NewUserService(userRepo, blacklist, jwtManager)

	// 6. 问答记录：Kafka 异步落库，或直接写库
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	var (
		recorder   service.TurnRecorder
		producer   *kafka.Producer
		consumerWG sync.WaitGroup
	)
	if cfg.Chat.RecordTurns {
		if cfg.Kafka.Enabled {
			producer = kafka.NewProducer(cfg.Kafka)
			recorder = service.RecorderFunc(producer.Publish)
			consumerWG.Add(1)
			go func() {
				defer consumerWG.Done()
				kafka.StartConsumer(rootCtx, cfg.Kafka, historyService)
			}()
		} else {
			recorder = service.RecorderFunc(historyService.Process)
		}
	}
	chatService := service.NewChatService(chatRepo, promptRepo, sessionRepo, llmClient, cfg.Chat, recorder)

	// 7. 语音合成（可选）
	var ttsService service.TTSService
	if cfg.TTS.Enabled {
		store, err := storage.NewMinIO(rootCtx, cfg.MinIO)
		if err != nil {
			log.Fatal("MinIO 初始化失败", err)
		}
		ttsService = service.NewTTSService(tts.NewClient(cfg.TTS), store)
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AddAllowHeaders("Authorization", "X-Refresh-Token")
	r.Use(cors.New(corsCfg))

	// 9. 注册路由
	chatHandler := handler.NewChatHandler(chatService)
	r.POST("/chatbyqwen3", chatHandler.ChatByQwen3)
	r.GET("/addpropmt", chatHandler.AddPrompt)

	historyHandler := handler.NewHistoryHandler(historyService)
	chat := r.Group("/chat")
	{
		chat.GET("/getChats", historyHandler.GetChats)
		chat.POST("/addChat", historyHandler.AddChat)
		chat.DELETE("/deleteChat", historyHandler.DeleteChat)
	}

	sessionHandler := handler.NewSessionHandler(sessionService)
	session := r.Group("/session")
	{
		session.GET("/getSessions", sessionHandler.GetSessions)
		session.POST("/add", sessionHandler.AddSession)
		session.DELETE("/del", sessionHandler.DeleteSession)
	}

	userHandler := handler.NewUserHandler(userService)
	r.POST("/auth/refreshToken", userHandler.Refresh)
	users := r.Group("/user")
	{
		// 无需认证的路由
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)

		// 需要认证的路由
		authed := users.Group("")
		authed.Use(middleware.AuthMiddleware(jwtManager, blacklist))
		{
			authed.POST("/update", userHandler.Update)
			authed.DELETE("/delete", userHandler.Delete)
			authed.POST("/logout", userHandler.Logout)
		}
	}

	if ttsService != nil {
		ttsHandler := handler.NewTTSHandler(ttsService)
		r.POST("/tts", ttsHandler.Synthesize)
		r.GET("/tts/voices", ttsHandler.Voices)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 先停消费者，再刷新生产者
	cancelRoot()
	consumerWG.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
}
