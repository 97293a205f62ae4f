package handlers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"organicbasket/internal/config"
	"organicbasket/internal/handlers"
	"organicbasket/internal/middleware"
	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
	"organicbasket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testJWTSecret     = "test_jwt_secret"
	testGatewaySecret = "test_gateway_secret"
)

// testGateway stands in for the remote payment provider. Order creation
// answers with canned values; signature verification is the real HMAC check
// against the test secret.
type testGateway struct {
	ref string
	err error
}

func (g *testGateway) CreateOrder(_ context.Context, amountMinor int64, currency string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.ref, nil
}

func (g *testGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	mac := hmac.New(sha256.New, []byte(testGatewaySecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return signature != "" && hmac.Equal([]byte(expected), []byte(signature))
}

func signCallback(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(testGatewaySecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// testEnv bundles the app with the collaborators tests need for seeding.
type testEnv struct {
	app         *fiber.App
	authService *services.AuthService
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
	gw          *testGateway
}

// setupApp wires the full stack against a per-test in-memory SQLite database.
func setupApp(t *testing.T, gw *testGateway) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	assert.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	gwConfig := config.GatewayConfig{KeyID: "rzp_test_key", KeySecret: testGatewaySecret}
	upiConfig := config.UPIConfig{PayeeID: "organicbasket@okaxis", PayeeName: "Organic Basket"}

	authService := services.NewAuthService(userRepo, testJWTSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	checkoutService := services.NewCheckoutService(cartRepo, orderRepo, gw, gwConfig, nil)
	paymentService := services.NewPaymentService(orderRepo, gw, upiConfig, nil)
	orderService := services.NewOrderService(orderRepo, productRepo, nil)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterPublicRoutes(apiV1)
	paymentHandler.RegisterCallbackRoutes(app)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)
	checkoutHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	staff := protected.Group("", middleware.StaffRequired())
	productHandler.RegisterStaffRoutes(staff)
	orderHandler.RegisterStaffRoutes(staff)

	return &testEnv{
		app:         app,
		authService: authService,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		gw:          gw,
	}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// registerAndLogin creates a buyer through the public endpoints and returns
// a bearer token.
func (e *testEnv) registerAndLogin(t *testing.T, username, email string) string {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

// loginStaff seeds a staff account directly (registration never grants staff)
// and returns a bearer token.
func (e *testEnv) loginStaff(t *testing.T, username string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("staffpass123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	assert.NoError(t, e.userRepo.Create(&models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		IsStaff:  true,
	}))
	token, err := e.authService.LoginUser(username, "staffpass123")
	assert.NoError(t, err)
	return token
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        name,
		Category:    "fruit",
		Price:       decimal.NewFromFloat(price),
		Stock:       100,
		IsAvailable: true,
		IsActive:    true,
	}
	assert.NoError(t, e.productRepo.Create(product))
	return product
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t, &testGateway{})

	// Test Registration
	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	registerResp := decodeBody(t, resp)
	assert.Equal(t, "User registered successfully", registerResp["message"])

	// Test Duplicate Registration (username)
	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Test Login
	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	loginResp := decodeBody(t, resp)
	token, _ := loginResp["token"].(string)
	assert.NotEmpty(t, token)

	// Self-registered accounts never carry the staff flag
	claims, err := env.authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, false, claims["is_staff"])
}

func TestCatalogRoutes(t *testing.T) {
	env := setupApp(t, &testGateway{})
	env.seedProduct(t, "Alphonso Mango", 120.00)
	env.seedProduct(t, "Spinach Bunch", 25.50)

	// The catalog is public
	resp := env.doJSON(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, 2)
	resp.Body.Close()

	// Category filter
	resp = env.doJSON(t, http.MethodGet, "/api/v1/products?category=fruit", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Writing the catalog needs a staff token
	newProduct := map[string]interface{}{
		"name":     "Organic Carrot",
		"category": "vegetable",
		"price":    40.00,
		"stock":    30,
	}
	buyerToken := env.registerAndLogin(t, "buyer", "buyer@example.com")
	resp = env.doJSON(t, http.MethodPost, "/api/v1/products", buyerToken, newProduct)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	staffToken := env.loginStaff(t, "manager")
	resp = env.doJSON(t, http.MethodPost, "/api/v1/products", staffToken, newProduct)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// And no token at all is unauthorized
	resp = env.doJSON(t, http.MethodPost, "/api/v1/products", "", newProduct)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCartRequiresAuth(t *testing.T) {
	env := setupApp(t, &testGateway{})

	resp := env.doJSON(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

// TestManualPaymentFlow walks the storefront's fallback path end to end:
// cart, checkout with the gateway down, UPI payment screen, manual
// confirmation and staff approval.
func TestManualPaymentFlow(t *testing.T) {
	env := setupApp(t, &testGateway{err: fmt.Errorf("gateway unreachable")})
	mango := env.seedProduct(t, "Alphonso Mango", 120.00)
	spinach := env.seedProduct(t, "Spinach Bunch", 25.50)

	token := env.registerAndLogin(t, "buyer", "buyer@example.com")

	// Fill the cart
	resp := env.doJSON(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": mango.ID,
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = env.doJSON(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": spinach.ID,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cartBody := decodeBody(t, resp)
	assert.Equal(t, float64(3), cartBody["item_count"])

	// Checkout falls back to the manual UPI path
	resp = env.doJSON(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	checkoutBody := decodeBody(t, resp)
	assert.Equal(t, "upi", checkoutBody["payment"])
	orderData, _ := checkoutBody["order"].(map[string]interface{})
	orderID, _ := orderData["id"].(string)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, "pending", orderData["status"])
	assert.Equal(t, fmt.Sprintf("/api/v1/orders/%s/upi", orderID), checkoutBody["payment_url"])

	// The cart is now empty
	resp = env.doJSON(t, http.MethodGet, "/api/v1/cart", token, nil)
	cartBody = decodeBody(t, resp)
	assert.Equal(t, float64(0), cartBody["item_count"])

	// A second checkout on the emptied cart is refused
	resp = env.doJSON(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	emptyBody := decodeBody(t, resp)
	assert.Equal(t, "Your cart is empty.", emptyBody["message"])

	// The UPI payment screen carries the intent and QR rendering
	resp = env.doJSON(t, http.MethodGet, "/api/v1/orders/"+orderID+"/upi", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	upiBody := decodeBody(t, resp)
	payment, _ := upiBody["payment"].(map[string]interface{})
	assert.Equal(t, "265.50", payment["amount"])
	intent, _ := payment["intent_uri"].(string)
	assert.Contains(t, intent, "upi://pay?pa=organicbasket%40okaxis")
	assert.Contains(t, intent, "am=265.50")
	qrURL, _ := payment["qr_url"].(string)
	assert.Contains(t, qrURL, "api.qrserver.com")

	// Another user cannot see the payment screen
	otherToken := env.registerAndLogin(t, "other", "other@example.com")
	resp = env.doJSON(t, http.MethodGet, "/api/v1/orders/"+orderID+"/upi", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The buyer confirms the manual payment
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+orderID+"/upi/confirm", token, map[string]string{
		"transaction_id": "UTR123456",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	confirmBody := decodeBody(t, resp)
	assert.Contains(t, confirmBody["message"], "waiting for approval")

	// Confirming twice is absorbed
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+orderID+"/upi/confirm", token, map[string]string{
		"transaction_id": "UTR999999",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	confirmBody = decodeBody(t, resp)
	assert.Equal(t, "Payment is already submitted for this order.", confirmBody["message"])

	order, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "UTR123456", order.GatewayPaymentRef)

	// Buyers cannot approve
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+orderID+"/approve", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Staff approval moves the order to processing
	staffToken := env.loginStaff(t, "manager")
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+orderID+"/approve", staffToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	approveBody := decodeBody(t, resp)
	assert.Contains(t, approveBody["message"], "approved")

	order, _ = env.orderRepo.GetByID(orderID)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)

	// Approving again reports the order as not waiting
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+orderID+"/approve", staffToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	approveBody = decodeBody(t, resp)
	assert.Contains(t, approveBody["message"], "not waiting for approval")

	// Fulfillment continues through the status endpoint
	resp = env.doJSON(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", staffToken, map[string]string{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Illegal transitions are rejected
	resp = env.doJSON(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", staffToken, map[string]string{
		"status": "paid",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The dashboard reflects the order
	resp = env.doJSON(t, http.MethodGet, "/api/v1/dashboard", staffToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	dashboard := decodeBody(t, resp)
	assert.Equal(t, float64(1), dashboard["total_orders"])
	assert.Equal(t, "265.5", dashboard["total_revenue"])
}

// TestGatewayPaymentFlow covers the gateway-initiated checkout and the signed
// verification callback, including the forged-signature path.
func TestGatewayPaymentFlow(t *testing.T) {
	env := setupApp(t, &testGateway{ref: "order_abc"})
	mango := env.seedProduct(t, "Alphonso Mango", 120.00)

	token := env.registerAndLogin(t, "buyer", "buyer@example.com")

	resp := env.doJSON(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": mango.ID,
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	checkoutBody := decodeBody(t, resp)
	assert.Equal(t, "gateway", checkoutBody["payment"])
	assert.Equal(t, "order_abc", checkoutBody["gateway_order_ref"])
	assert.Equal(t, "rzp_test_key", checkoutBody["gateway_key_id"])
	assert.Equal(t, float64(24000), checkoutBody["amount"])
	assert.Equal(t, "INR", checkoutBody["currency"])
	orderData, _ := checkoutBody["order"].(map[string]interface{})
	orderID, _ := orderData["id"].(string)

	// The gateway confirms with a valid signature
	form := url.Values{}
	form.Set("gateway_order_id", "order_abc")
	form.Set("gateway_payment_id", "pay_xyz")
	form.Set("gateway_signature", signCallback("order_abc", "pay_xyz"))
	req := httptest.NewRequest(http.MethodPost, "/payment/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	verifyResp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, verifyResp.StatusCode)
	verifyBody := decodeBody(t, verifyResp)
	assert.Equal(t, "success", verifyBody["status"])

	order, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "pay_xyz", order.GatewayPaymentRef)
}

func TestGatewayCallbackBlankPayload(t *testing.T) {
	env := setupApp(t, &testGateway{err: fmt.Errorf("gateway unreachable")})
	mango := env.seedProduct(t, "Alphonso Mango", 120.00)

	// A manual-path order, confirmed and paid, with no gateway reference.
	token := env.registerAndLogin(t, "buyer", "buyer@example.com")
	resp := env.doJSON(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": mango.ID,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = env.doJSON(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	checkoutBody := decodeBody(t, resp)
	orderData, _ := checkoutBody["order"].(map[string]interface{})
	orderID, _ := orderData["id"].(string)
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+orderID+"/upi/confirm", token, map[string]string{
		"transaction_id": "UTR123456",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// An anonymous callback with no form fields at all
	req := httptest.NewRequest(http.MethodPost, "/payment/verify", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	verifyResp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, verifyResp.StatusCode)
	verifyBody := decodeBody(t, verifyResp)
	assert.Equal(t, "failure", verifyBody["status"])

	// The paid manual order is untouched
	order, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "UTR123456", order.GatewayPaymentRef)
}

func TestGatewayCallbackForgedSignature(t *testing.T) {
	env := setupApp(t, &testGateway{ref: "order_abc"})
	mango := env.seedProduct(t, "Alphonso Mango", 120.00)

	token := env.registerAndLogin(t, "buyer", "buyer@example.com")
	resp := env.doJSON(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": mango.ID,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	checkoutBody := decodeBody(t, resp)
	orderData, _ := checkoutBody["order"].(map[string]interface{})
	orderID, _ := orderData["id"].(string)

	form := url.Values{}
	form.Set("gateway_order_id", "order_abc")
	form.Set("gateway_payment_id", "pay_xyz")
	form.Set("gateway_signature", "forged")
	req := httptest.NewRequest(http.MethodPost, "/payment/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	verifyResp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, verifyResp.StatusCode)
	verifyBody := decodeBody(t, verifyResp)
	assert.Equal(t, "failure", verifyBody["status"])

	// The forged callback cancelled the order and never marked it paid
	order, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Empty(t, order.GatewayPaymentRef)
}
