package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo      string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID       uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	Status       string         `gorm:"index;not null" json:"status"`                              // 订单状态（pending/confirmed/delivered/cancelled）
	Currency     string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 订单总额
	ContactName  string         `gorm:"type:varchar(100)" json:"contact_name,omitempty"`           // 联系人姓名
	ContactEmail string         `gorm:"type:varchar(200)" json:"contact_email,omitempty"`          // 联系人邮箱
	ContactPhone string         `gorm:"type:varchar(50)" json:"contact_phone,omitempty"`           // 联系人电话
	ClientIP     string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`               // 下单客户端IP
	ExpiresAt    *time.Time     `gorm:"index" json:"expires_at"`                                   // 待确认超时时间
	ConfirmedAt  *time.Time     `gorm:"index" json:"confirmed_at"`                                 // 确认时间
	DeliveredAt  *time.Time     `json:"delivered_at"`                                              // 交付时间
	CanceledAt   *time.Time     `gorm:"index" json:"canceled_at"`                                  // 取消时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
