package models

// Article is a catalog entry with its material data.
type Article struct {
	ArticleNo     string  `gorm:"primaryKey;size:64"`
	Description   string  `gorm:"size:255;not null"`
	MaterialGroup int     `gorm:"index;not null"`
	SizeClass     string  `gorm:"size:64"`
	Weight        float64 `gorm:"not null;default:0"`
}

// PurchaseOrder is the transaction header carrying date and supplier.
type PurchaseOrder struct {
	OrderNo    string `gorm:"primaryKey;size:64"`
	OrderDate  string `gorm:"type:date;index;not null"`
	SupplierNo string `gorm:"size:64;index"`
}

// PricePosition is one priced article line of a purchase order.
type PricePosition struct {
	ID        uint    `gorm:"primaryKey"`
	OrderNo   string  `gorm:"size:64;uniqueIndex:idx_position_order_article;not null"`
	ArticleNo string  `gorm:"size:64;uniqueIndex:idx_position_order_article;not null"`
	UnitPrice float64 `gorm:"not null"`
	Quantity  float64 `gorm:"not null;default:0"`
}
