package services

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
	"organicbasket/pkg/rabbitmq"
)

// revenueStatuses are the order states that count towards reported revenue.
var revenueStatuses = []models.OrderStatus{
	models.OrderStatusPaid,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

// DashboardReport is the staff dashboard's aggregate view.
type DashboardReport struct {
	TotalOrders      int64                        `json:"total_orders"`
	TotalProducts    int64                        `json:"total_products"`
	TotalRevenue     decimal.Decimal              `json:"total_revenue"`
	StatusBreakdown  map[models.OrderStatus]int64 `json:"status_breakdown"`
	TopProducts      []repositories.ProductSales  `json:"top_products"`
	PendingApprovals []models.Order               `json:"pending_approvals"`
}

// OrderService handles order tracking, the staff approval workflow and the
// dashboard aggregates.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	mqClient    *rabbitmq.Client
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		mqClient:    mqClient,
	}
}

// GetOrdersForUser retrieves a user's orders, newest first.
func (s *OrderService) GetOrdersForUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetOrderForUser retrieves a single order owned by the user.
func (s *OrderService) GetOrderForUser(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotOwner)
	}
	return order, nil
}

// Approve moves a paid order to processing, gating fulfillment. Only staff
// may approve. An order in any other status is left untouched and reported
// as not awaiting approval rather than as an error.
func (s *OrderService) Approve(orderID string, actor *models.User) (notAwaiting bool, err error) {
	if actor == nil || !actor.IsStaff {
		return false, ErrForbidden
	}

	transitioned, err := s.orderRepo.UpdateStatus(orderID, models.OrderStatusPaid, models.OrderStatusProcessing)
	if err != nil {
		return false, err
	}
	if !transitioned {
		return true, nil
	}

	if s.mqClient != nil {
		if err := s.mqClient.Publish("order.approved", []byte(orderID)); err != nil {
			log.Printf("Warning: Failed to publish order approved event for order %s: %v", orderID, err)
		}
	}
	return false, nil
}

// UpdateStatus is the staff tooling for transitions outside the payment
// core, e.g. processing->shipped and shipped->delivered. The state machine
// rejects anything else.
func (s *OrderService) UpdateStatus(orderID string, to models.OrderStatus, actor *models.User) error {
	if actor == nil || !actor.IsStaff {
		return ErrForbidden
	}
	if !to.Valid() {
		return fmt.Errorf("invalid order status: %s", to)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransition(to) {
		return fmt.Errorf("order %s cannot move from %s to %s", orderID, order.Status, to)
	}

	transitioned, err := s.orderRepo.UpdateStatus(orderID, order.Status, to)
	if err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}
	if !transitioned {
		// A concurrent writer moved the order first.
		return fmt.Errorf("order %s changed concurrently, status not updated", orderID)
	}
	return nil
}

// Dashboard builds the staff revenue and approval report.
func (s *OrderService) Dashboard() (*DashboardReport, error) {
	totalOrders, err := s.orderRepo.CountAll()
	if err != nil {
		return nil, err
	}
	totalProducts, err := s.productRepo.Count()
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.RevenueTotal(revenueStatuses)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.orderRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	topProducts, err := s.orderRepo.TopProducts(5)
	if err != nil {
		return nil, err
	}
	pendingApprovals, err := s.orderRepo.ListByStatus(models.OrderStatusPaid, 20)
	if err != nil {
		return nil, err
	}

	return &DashboardReport{
		TotalOrders:      totalOrders,
		TotalProducts:    totalProducts,
		TotalRevenue:     revenue,
		StatusBreakdown:  breakdown,
		TopProducts:      topProducts,
		PendingApprovals: pendingApprovals,
	}, nil
}
