package models

import "time"

type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{StatusNew, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

var statusLabels = map[OrderStatus]string{
	StatusNew:       "جديد",
	StatusConfirmed: "مؤكد",
	StatusShipped:   "تم الشحن",
	StatusDelivered: "تم التوصيل",
	StatusCancelled: "ملغي",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the Arabic display label.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type CaseColor string

const (
	ColorRed   CaseColor = "Red"
	ColorBlack CaseColor = "Black"
	ColorPink  CaseColor = "Pink"
	ColorGreen CaseColor = "Green"
)

var CaseColors = []CaseColor{ColorRed, ColorBlack, ColorPink, ColorGreen}

var colorLabels = map[CaseColor]string{
	ColorRed:   "أحمر",
	ColorBlack: "أسود",
	ColorPink:  "وردي",
	ColorGreen: "أخضر",
}

// Label is the Arabic color name shown on the order form.
func (c CaseColor) Label() string {
	if l, ok := colorLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c CaseColor) Valid() bool {
	for _, v := range CaseColors {
		if v == c {
			return true
		}
	}
	return false
}

// Cities is the closed set offered by the order form. "Other" covers the rest.
var Cities = []string{"Casablanca", "Rabat", "Marrakech", "Tanger", "Agadir", "Fes", "Meknes", "Oujda", "Other"}

// DefaultProductName is written on exported rows for orders without a product.
const DefaultProductName = "SonicPod Gen 4"

type Order struct {
	ID            string      `bson:"_id,omitempty"         gorm:"primaryKey;size:64"            json:"id"`
	FullName      string      `bson:"fullName"              gorm:"size:255;not null"             json:"fullName"`
	PhoneNumber   string      `bson:"phoneNumber"           gorm:"size:64;not null"              json:"phoneNumber"`
	Address       string      `bson:"address"               gorm:"type:text"                     json:"address"`
	City          string      `bson:"city"                  gorm:"size:64;not null"              json:"city"`
	SelectedColor CaseColor   `bson:"selectedColor"         gorm:"size:16;not null;default:Black" json:"selectedColor"`
	ProductID     string      `bson:"productId,omitempty"   gorm:"size:64"                       json:"productId,omitempty"`
	ProductName   string      `bson:"productName,omitempty" gorm:"size:255"                      json:"productName,omitempty"`
	CreatedAt     time.Time   `bson:"createdAt"             gorm:"not null;index"                json:"createdAt"`
	Status        OrderStatus `bson:"status"                gorm:"size:16;not null;index"        json:"status"`
	TotalPrice    float64     `bson:"totalPrice"            gorm:"not null"                      json:"totalPrice"`
}
