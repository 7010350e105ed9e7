package services

import (
	"errors"
	"fmt"

	"footballshop/internal/models"
	"footballshop/internal/repositories"

	"go.uber.org/zap"
)

// Listing filters accepted by ListProducts.
const (
	FilterAll  = "all"
	FilterMine = "mine"
)

// Product lifecycle events.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventProductViewed  = "product.viewed"
)

// EventPublisher receives product lifecycle events.
type EventPublisher interface {
	PublishProductEvent(event string, payload map[string]interface{}) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	users  repositories.UserRepository
	events EventPublisher
	log    *zap.Logger
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, users repositories.UserRepository, events EventPublisher, log *zap.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		users:  users,
		events: events,
		log:    log,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductsByOwner retrieves the products owned by userID.
func (s *ProductService) GetProductsByOwner(userID string) ([]models.Product, error) {
	return s.repo.GetByOwner(userID)
}

// ListProducts returns the listing for the given filter. Anything other
// than FilterMine lists every product.
func (s *ProductService) ListProducts(filter string, user *models.User) ([]models.Product, error) {
	if filter == FilterMine && user != nil {
		return s.repo.GetByOwner(user.ID)
	}
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// ViewProduct counts a detail-page view and returns the updated product.
func (s *ProductService) ViewProduct(id string) (*models.Product, error) {
	if err := s.repo.IncrementViews(id); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.publish(EventProductViewed, product)
	return product, nil
}

// CreateProduct stores a new product owned by owner. A nil owner creates an
// owner-less product.
func (s *ProductService) CreateProduct(product *models.Product, owner *models.User) error {
	product.SetOwner(owner)
	product.ProductViews = 0
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.publish(EventProductCreated, product)
	return nil
}

// UpdateProduct overwrites the editable fields of an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.publish(EventProductUpdated, product)
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publish(EventProductDeleted, &models.Product{ID: id})
	return nil
}

// OwnerUsername resolves the username of the product's owner. ok is false
// for owner-less products and for owners that no longer exist.
func (s *ProductService) OwnerUsername(product *models.Product) (username string, ok bool, err error) {
	if !product.HasOwner() {
		return "", false, nil
	}
	user, err := s.users.GetByID(product.OwnerID())
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to resolve owner of product %s: %w", product.ID, err)
	}
	return user.Username, true, nil
}

func (s *ProductService) publish(event string, product *models.Product) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"id":            product.ID,
		"name":          product.Name,
		"price":         product.Price,
		"category":      product.Category,
		"brand":         product.Brand,
		"product_views": product.ProductViews,
		"user_id":       product.UserID,
	}
	if err := s.events.PublishProductEvent(event, payload); err != nil {
		s.log.Warn("failed to publish product event",
			zap.String("event", event), zap.String("product_id", product.ID), zap.Error(err))
	}
}
