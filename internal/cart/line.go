package cart

import "math"

// Line 购物车行，一个商品对应一行
type Line struct {
	ProductID     uint     `json:"product_id"`               // 商品ID
	Name          string   `json:"name"`                     // 商品名称快照
	Type          string   `json:"type"`                     // 商品类型快照
	Destination   string   `json:"destination,omitempty"`    // 目的地快照
	ImageURL      string   `json:"image_url,omitempty"`      // 主图快照
	UnitPrice     float64  `json:"unit_price"`               // 加入时单价
	OriginalPrice *float64 `json:"original_price,omitempty"` // 加入时原价
	Quantity      int      `json:"quantity"`                 // 选购数量
	Stock         int      `json:"stock"`                    // 加入时已知库存
}

// Product 加入购物车所需的商品字段
type Product struct {
	ID            uint
	Name          string
	Type          string
	Destination   string
	ImageURL      string
	Price         float64
	OriginalPrice *float64
	Stock         int
}

// sanitize 清洗上游数据中的异常数值，非法值归零而不是报错
func (p Product) sanitize() Product {
	p.Price = coerceNumber(p.Price)
	if p.OriginalPrice != nil {
		original := coerceNumber(*p.OriginalPrice)
		if original <= 0 {
			p.OriginalPrice = nil
		} else {
			p.OriginalPrice = &original
		}
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
	return p
}

// coerceNumber 将 NaN/Inf/负数统一压到 0
func coerceNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
