package main

import (
	"github.com/tripmall/internal/config"
	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/logger"
	"github.com/tripmall/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	products := []models.Product{
		{
			Name:        "上海-东京 往返经济舱机票",
			Description: "全日空直飞，含 23kg 托运行李额，可免费改期一次。",
			Type:        constants.ProductTypeFlight,
			Price:       money(2380),
			Currency:    "CNY",
			Stock:       60,
			ImageURL:    "https://images.unsplash.com/photo-1436491865332-7a61a109cc05?w=800",
			Destination: "东京",
			Featured:    true,
			IsActive:    true,
		},
		{
			Name:        "北京-新加坡 单程商务舱机票",
			Description: "新加坡航空，含贵宾休息室与优先登机。",
			Type:        constants.ProductTypeFlight,
			Price:       money(6800),
			Currency:    "CNY",
			Stock:       20,
			ImageURL:    "https://images.unsplash.com/photo-1556388158-158ea5ccacbd?w=800",
			Destination: "新加坡",
			IsActive:    true,
		},
		{
			Name:          "京都岚山温泉旅馆 两晚含早",
			Description:   "和式房型，私汤温泉，步行可达竹林小径。",
			Type:          constants.ProductTypeLodging,
			Price:         money(3200),
			OriginalPrice: moneyPtr(3980),
			Currency:      "CNY",
			Stock:         15,
			ImageURL:      "https://images.unsplash.com/photo-1545569341-9eb8b30979d9?w=800",
			Destination:   "京都",
			DurationDays:  2,
			Featured:      true,
			IsActive:      true,
		},
		{
			Name:         "巴厘岛海景别墅 三晚",
			Description:  "独立泳池别墅，含机场接送与每日早餐。",
			Type:         constants.ProductTypeLodging,
			Price:        money(4500),
			Currency:     "CNY",
			Stock:        8,
			ImageURL:     "https://images.unsplash.com/photo-1537996194471-e657df975ab4?w=800",
			Destination:  "巴厘岛",
			DurationDays: 3,
			IsActive:     true,
		},
		{
			Name:        "冲绳自驾 紧凑型轿车 日租",
			Description: "丰田 Yaris 或同级，含基础保险，那霸机场取还车。",
			Type:        constants.ProductTypeCar,
			Price:       money(280),
			Currency:    "CNY",
			Stock:       30,
			ImageURL:    "https://images.unsplash.com/photo-1449965408869-eaa3f722e40d?w=800",
			Destination: "冲绳",
			IsActive:    true,
		},
		{
			Name:        "新西兰南岛 SUV 日租",
			Description: "四驱 SUV，不限里程，皇后镇机场取还车。",
			Type:        constants.ProductTypeCar,
			Price:       money(520),
			Currency:    "CNY",
			Stock:       12,
			ImageURL:    "https://images.unsplash.com/photo-1533473359331-0135ef1b58bf?w=800",
			Destination: "皇后镇",
			IsActive:    true,
		},
		{
			Name:          "普吉岛五日四晚自由行套餐",
			Description:   "往返机票 + 海滨酒店四晚 + 出海一日游，含签证协助。",
			Type:          constants.ProductTypePackage,
			Price:         money(5280),
			OriginalPrice: moneyPtr(6180),
			Currency:      "CNY",
			Stock:         25,
			ImageURL:      "https://images.unsplash.com/photo-1589394815804-964ed0be2eb5?w=800",
			Destination:   "普吉岛",
			DurationDays:  5,
			Featured:      true,
			IsActive:      true,
		},
		{
			Name:         "瑞士少女峰七日深度游",
			Description:  "全程四星酒店，含少女峰铁路与金色山口快线车票。",
			Type:         constants.ProductTypePackage,
			Price:        money(18800),
			Currency:     "CNY",
			Stock:        10,
			ImageURL:     "https://images.unsplash.com/photo-1527668752968-14dc70a27c95?w=800",
			Destination:  "因特拉肯",
			DurationDays: 7,
			IsActive:     true,
		},
		{
			Name:         "已下架示例：马尔代夫水屋四晚",
			Description:  "仅用于后台演示下架商品的展示逻辑。",
			Type:         constants.ProductTypePackage,
			Price:        money(16000),
			Currency:     "CNY",
			Stock:        0,
			Destination:  "马累",
			DurationDays: 4,
			IsActive:     false,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("name = ?", product.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("创建商品失败 %s: %v", product.Name, err)
			} else {
				stdLog.Printf("已创建商品: %s", product.Name)
			}
		} else {
			stdLog.Printf("商品已存在: %s", product.Name)
		}
	}

	stdLog.Printf("演示数据初始化完成")
}

func money(v float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(v))
}

func moneyPtr(v float64) *models.Money {
	m := money(v)
	return &m
}
