package services_test

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/app/repositories"
	"github.com/hsmarket/storefront/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "رقم الطلب,التاريخ,العميل,الهاتف,المدينة,العنوان,المنتج,لون الغطاء,الثمن (DH),الحالة"

func TestFormatOrdersCSVEmpty(t *testing.T) {
	out := services.FormatOrdersCSV(nil, 190)
	assert.Equal(t, "\ufeff"+header, out)
}

func TestFormatOrdersCSVRow(t *testing.T) {
	orders := []models.Order{{
		ID:            "abc",
		FullName:      `Ali "Simo"`,
		PhoneNumber:   "0612345678",
		City:          "Rabat",
		Address:       `Hay "Riad", 3`,
		SelectedColor: models.ColorPink,
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:        models.StatusShipped,
	}}

	out := services.FormatOrdersCSV(orders, 190)
	require.True(t, strings.HasPrefix(out, "\ufeff"))

	lines := strings.Split(strings.TrimPrefix(out, "\ufeff"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, header, lines[0])
	assert.Equal(t,
		`abc,01/03/2026,"Ali ""Simo""","0612345678","Rabat","Hay ""Riad"", 3","SonicPod Gen 4",Pink,190,تم الشحن`,
		lines[1])
}

func TestFormatOrdersCSVDefaults(t *testing.T) {
	orders := []models.Order{{
		ID:          "x",
		ProductName: "Watch X",
		TotalPrice:  349,
		CreatedAt:   time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC),
		Status:      models.StatusNew,
	}}

	line := strings.Split(services.FormatOrdersCSV(orders, 190), "\n")[1]
	// 23:30 UTC is already the next day in Casablanca.
	assert.Equal(t, `x,01/02/2026,"","","","","Watch X",Black,349,جديد`, line)
}

func TestFormatOrdersCSVProductNameWithDelimiters(t *testing.T) {
	orders := []models.Order{{
		ID:          "p1",
		FullName:    "Nadia",
		ProductName: `SonicPod 4, "Pro" Edition`,
		TotalPrice:  249,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:      models.StatusNew,
	}}

	out := services.FormatOrdersCSV(orders, 190)
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, records[1], 10)
	assert.Equal(t, `SonicPod 4, "Pro" Edition`, records[1][6])
	assert.Equal(t, "249", records[1][8])
}

func TestExportOrders(t *testing.T) {
	ctx := context.Background()
	svc := services.NewOrderService(repositories.NewMemoryStore(), nil, services.OrderConfig{})
	for i := 0; i < 3; i++ {
		_, err := svc.SubmitOrder(ctx, yassine())
		require.NoError(t, err)
	}

	export, err := svc.ExportOrders(ctx, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "hsmarket-orders-2026-03-01.csv", export.Filename)
	assert.Contains(t, export.ContentType, "text/csv")
	assert.Len(t, strings.Split(string(export.Content), "\n"), 4)
}
