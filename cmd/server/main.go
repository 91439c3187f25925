// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"nnews-go/internal/config"
	"nnews-go/internal/handler"
	"nnews-go/internal/middleware"
	"nnews-go/internal/model"
	"nnews-go/internal/pipeline"
	"nnews-go/internal/repository"
	"nnews-go/internal/scheduler"
	"nnews-go/internal/service"
	"nnews-go/pkg/database"
	"nnews-go/pkg/es"
	"nnews-go/pkg/kafka"
	"nnews-go/pkg/llm"
	"nnews-go/pkg/log"
	"nnews-go/pkg/storage"
	"nnews-go/pkg/token"
)

func main() {
	configPath := "./configs/config.yaml"
	if p := os.Getenv("NNEWS_CONFIG"); p != "" {
		configPath = p
	}

	// 1. 初始化配置
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 和 MinIO
	var models []interface{}
	if cfg.Database.MySQL.AutoMigrate {
		models = append(models, &model.Category{}, &model.Tag{}, &model.Article{}, &model.ArticleRole{})
	}
	database.InitMySQL(cfg.Database.MySQL.DSN, models...)
	defer database.CloseMySQL()
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	defer database.CloseRedis()
	storage.InitMinIO(cfg.MinIO)

	// 4. 初始化 Repository
	articleRepo := repository.NewArticleRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)
	tagRepo := repository.NewTagRepository(database.DB)

	// 5. 可选组件：Elasticsearch 检索和 Kafka 事件
	var searcher service.ArticleSearcher
	var articleIndex *es.ArticleIndex
	if cfg.Elasticsearch.Enabled() {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Errorf("es 初始化失败，搜索将退回数据库: %v", err)
		} else {
			articleIndex = es.NewArticleIndex(es.ESClient, cfg.Elasticsearch.IndexName)
			searcher = articleIndex
		}
	}

	var publisher service.EventPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled() {
		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer
	}

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	llmClient := llm.NewClient(cfg.LLM)
	articleService := service.NewArticleService(articleRepo, tagRepo, searcher, publisher)
	categoryService := service.NewCategoryService(categoryRepo, articleRepo)
	tagService := service.NewTagService(tagRepo)
	imageService := service.NewImageService(llmClient, storage.NewBlobStore(cfg.MinIO), nil, cfg.MinIO.BucketName, cfg.Image, log.Named("ImageService"))
	articleAIService := service.NewArticleAIService(articleService, categoryRepo, tagRepo, llmClient, imageService, log.Named("ArticleAIService"))

	// 7. 启动后台任务：索引同步消费者和定时发布
	bgCtx, cancelBg := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	if producer != nil && articleIndex != nil {
		indexer := pipeline.NewIndexer(articleRepo, articleIndex)
		consumer := kafka.NewConsumer(cfg.Kafka, kafka.NewRedisAttemptCounter(database.RDB), indexer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(bgCtx); err != nil {
				log.Errorf("Kafka 消费者异常退出，索引同步已停止: %v", err)
			}
		}()
	}

	if cfg.Scheduler.Enabled {
		publisherJob := scheduler.NewPublisher(articleService, scheduler.NewRedisLocker(database.RDB),
			cfg.Scheduler.Interval, cfg.Scheduler.LockTTL, log.Named("Scheduler"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisherJob.Run(bgCtx)
		}()
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(log.Named("HTTP")), gin.Recovery())

	// 9. 注册路由
	handler.RegisterRoutes(r, handler.Handlers{
		Article:  handler.NewArticleHandler(articleService, articleAIService),
		Category: handler.NewCategoryHandler(categoryService),
		Tag:      handler.NewTagHandler(tagService),
		Image:    handler.NewImageHandler(imageService),
	}, jwtManager)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// AI 生成可能较慢，留足时间让进行中的请求结束
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止后台任务，再关闭生产者
	cancelBg()
	wg.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
}
