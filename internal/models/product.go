package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 旅游商品表（机票/住宿/租车/套餐）
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                                // 主键
	Name          string         `gorm:"not null;index" json:"name"`                                          // 商品名称
	Description   string         `gorm:"type:text" json:"description"`                                        // 商品描述
	Type          string         `gorm:"type:varchar(20);not null;index" json:"type"`                         // 商品类型（flight/lodging/car/package）
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`                  // 售价
	OriginalPrice *Money         `gorm:"type:decimal(20,2)" json:"original_price,omitempty"`                  // 原价（划线价，可为空）
	Currency      string         `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`             // 币种
	Stock         int            `gorm:"not null;default:0" json:"stock"`                                     // 可售库存
	ImageURL      string         `gorm:"type:varchar(500)" json:"image_url,omitempty"`                        // 主图地址
	Destination   string         `gorm:"type:varchar(100);index" json:"destination,omitempty"`                // 目的地
	DurationDays  int            `gorm:"not null;default:0" json:"duration_days"`                             // 行程天数（机票/租车为 0）
	Featured      bool           `gorm:"not null;default:false;index" json:"featured"`                        // 是否首页推荐
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                                 // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                          // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                      // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
