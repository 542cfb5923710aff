package models

import "math"

// DefaultProductImage is used when a product is created without an image.
const DefaultProductImage = "./product-image.jpg"

// Product is a catalog item. Optional fields left at their zero value are
// not written to the document store.
type Product struct {
	ID            string   `bson:"_id,omitempty"           gorm:"primaryKey;size:64"         json:"id"`
	Name          string   `bson:"name"                    gorm:"size:255;not null;index"    json:"name"`
	Price         float64  `bson:"price"                   gorm:"not null;default:0"         json:"price"`
	OriginalPrice float64  `bson:"originalPrice,omitempty" gorm:"default:0"                  json:"originalPrice,omitempty"`
	Image         string   `bson:"image"                   gorm:"size:1024"                  json:"image"`
	Images        []string `bson:"images,omitempty"        gorm:"serializer:json;type:text"  json:"images,omitempty"`
	Description   string   `bson:"description"             gorm:"type:text"                  json:"description"`
	Category      string   `bson:"category,omitempty"      gorm:"size:64;index"              json:"category,omitempty"`
}

// DiscountPercent returns the rounded markdown against OriginalPrice, or 0
// when there is no original price.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice <= 0 {
		return 0
	}
	return int(math.Round((p.OriginalPrice - p.Price) / p.OriginalPrice * 100))
}

// Gallery returns the image list shown on the product page: the explicit
// gallery when present, otherwise the primary image alone.
func (p Product) Gallery() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.Image == "" {
		return nil
	}
	return []string{p.Image}
}

// DefaultProduct is the flagship item offered when the catalog is empty.
func DefaultProduct() Product {
	return Product{
		Name:        "SonicPod Gen 4",
		Price:       190,
		Image:       DefaultProductImage,
		Description: "سماعات بلوتوث لاسلكية مع خاصية العزل الصوتي وعلبة حماية مجانية.",
	}
}
