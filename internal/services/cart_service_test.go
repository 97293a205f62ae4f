package services_test

import (
	"testing"

	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
	"organicbasket/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newCartFixture() (*services.CartService, *repositories.MockProductRepository, *repositories.MockCartRepository) {
	productRepo := repositories.NewMockProductRepository()
	cartRepo := repositories.NewMockCartRepository(productRepo)
	return services.NewCartService(cartRepo, productRepo), productRepo, cartRepo
}

func seedProduct(t *testing.T, repo *repositories.MockProductRepository, name string, price float64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        name,
		Category:    "fruit",
		Price:       decimal.NewFromFloat(price),
		Stock:       100,
		IsAvailable: true,
		IsActive:    true,
	}
	assert.NoError(t, repo.Create(product))
	return product
}

func TestCartService_GetOrCreateCartIsIdempotent(t *testing.T) {
	service, _, _ := newCartFixture()

	first, err := service.GetOrCreateCart("user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.Items)

	second, err := service.GetOrCreateCart("user-1")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCartService_AddItem(t *testing.T) {
	service, productRepo, _ := newCartFixture()
	mango := seedProduct(t, productRepo, "Alphonso Mango", 120.00)

	item, err := service.AddItem("user-1", mango.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	// Adding the same product again increments the existing line
	item, err = service.AddItem("user-1", mango.ID, 3)
	assert.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	cart, err := service.GetOrCreateCart("user-1")
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.ItemCount())
}

func TestCartService_AddItemClampsQuantity(t *testing.T) {
	service, productRepo, _ := newCartFixture()
	mango := seedProduct(t, productRepo, "Alphonso Mango", 120.00)

	item, err := service.AddItem("user-1", mango.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
}

func TestCartService_AddItemUnavailableProduct(t *testing.T) {
	service, productRepo, _ := newCartFixture()

	hidden := &models.Product{
		Name:        "Seasonal Jackfruit",
		Category:    "fruit",
		Price:       decimal.NewFromFloat(90.00),
		IsAvailable: false,
		IsActive:    true,
	}
	assert.NoError(t, productRepo.Create(hidden))

	_, err := service.AddItem("user-1", hidden.ID, 1)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)

	// Unknown products are a plain not-found error
	_, err = service.AddItem("user-1", "no-such-product", 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCartService_SetQuantity(t *testing.T) {
	service, productRepo, _ := newCartFixture()
	mango := seedProduct(t, productRepo, "Alphonso Mango", 120.00)

	item, err := service.AddItem("user-1", mango.ID, 2)
	assert.NoError(t, err)

	assert.NoError(t, service.SetQuantity("user-1", item.ID, 7))
	cart, _ := service.GetOrCreateCart("user-1")
	assert.Equal(t, 7, cart.Items[0].Quantity)

	// Zero or negative removes the line instead of storing it
	assert.NoError(t, service.SetQuantity("user-1", item.ID, 0))
	cart, _ = service.GetOrCreateCart("user-1")
	assert.Empty(t, cart.Items)
}

func TestCartService_RemoveItem(t *testing.T) {
	service, productRepo, _ := newCartFixture()
	mango := seedProduct(t, productRepo, "Alphonso Mango", 120.00)

	item, err := service.AddItem("user-1", mango.ID, 2)
	assert.NoError(t, err)

	assert.NoError(t, service.RemoveItem("user-1", item.ID))
	cart, _ := service.GetOrCreateCart("user-1")
	assert.Empty(t, cart.Items)

	assert.Error(t, service.RemoveItem("user-1", item.ID))
}

func TestCartService_OwnershipEnforced(t *testing.T) {
	service, productRepo, _ := newCartFixture()
	mango := seedProduct(t, productRepo, "Alphonso Mango", 120.00)

	item, err := service.AddItem("user-1", mango.ID, 2)
	assert.NoError(t, err)

	// Another user may not touch the line
	err = service.SetQuantity("user-2", item.ID, 5)
	assert.ErrorIs(t, err, services.ErrNotOwner)
	err = service.RemoveItem("user-2", item.ID)
	assert.ErrorIs(t, err, services.ErrNotOwner)

	// The line is unchanged
	cart, _ := service.GetOrCreateCart("user-1")
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartService_Total(t *testing.T) {
	service, productRepo, _ := newCartFixture()
	mango := seedProduct(t, productRepo, "Alphonso Mango", 120.00)
	spinach := seedProduct(t, productRepo, "Spinach Bunch", 25.50)

	// Empty cart totals zero
	total, err := service.Total("user-1")
	assert.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = service.AddItem("user-1", mango.ID, 2)
	assert.NoError(t, err)
	_, err = service.AddItem("user-1", spinach.ID, 1)
	assert.NoError(t, err)

	total, err = service.Total("user-1")
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(265.50).Equal(total), "expected 265.50, got %s", total)
}
