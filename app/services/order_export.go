package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/hsmarket/storefront/app/models"
)

const csvBOM = "\ufeff"

var exportHeader = []string{
	"رقم الطلب",
	"التاريخ",
	"العميل",
	"الهاتف",
	"المدينة",
	"العنوان",
	"المنتج",
	"لون الغطاء",
	"الثمن (DH)",
	"الحالة",
}

// Export is a generated spreadsheet ready to download.
type Export struct {
	Filename    string
	ContentType string
	Content     []byte
}

var shopZone = func() *time.Location {
	loc, err := time.LoadLocation("Africa/Casablanca")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// ExportOrders fetches every order and renders it as CSV. now names the file.
func (s *OrderService) ExportOrders(ctx context.Context, now time.Time) (Export, error) {
	orders, err := s.orders.All(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("export orders: %w", err)
	}
	return Export{
		Filename:    ExportFilename(now),
		ContentType: "text/csv; charset=utf-8",
		Content:     []byte(FormatOrdersCSV(orders, s.unitPrice)),
	}, nil
}

// ExportFilename is hsmarket-orders-<UTC date>.csv.
func ExportFilename(now time.Time) string {
	return "hsmarket-orders-" + now.UTC().Format("2006-01-02") + ".csv"
}

// FormatOrdersCSV renders orders as BOM-prefixed CSV with Arabic headers.
// Free-text columns are always quoted; the rest are written as is.
func FormatOrdersCSV(orders []models.Order, unitPrice float64) string {
	lines := make([]string, 0, len(orders)+1)
	lines = append(lines, strings.Join(exportHeader, ","))

	for _, o := range orders {
		product := o.ProductName
		if product == "" {
			product = models.DefaultProductName
		}
		color := o.SelectedColor
		if color == "" {
			color = models.ColorBlack
		}
		price := o.TotalPrice
		if price <= 0 {
			price = unitPrice
		}

		lines = append(lines, strings.Join([]string{
			o.ID,
			o.CreatedAt.In(shopZone).Format("02/01/2006"),
			quote(o.FullName),
			quote(o.PhoneNumber),
			quote(o.City),
			quote(o.Address),
			quote(product),
			string(color),
			strconv.FormatFloat(price, 'f', -1, 64),
			o.Status.Label(),
		}, ","))
	}

	return csvBOM + strings.Join(lines, "\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
