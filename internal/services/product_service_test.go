package services_test

import (
	"fmt"
	"testing"

	"footballshop/internal/models"
	"footballshop/internal/repositories"
	"footballshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newProductService(repo *MockProductRepository, users *MockUserRepository, events services.EventPublisher) *services.ProductService {
	return services.NewProductService(repo, users, events, zap.NewNop())
}

func TestProductService_ListProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockUserRepository), nil)
	user := &models.User{ID: "user-1", Username: "budi"}

	all := []models.Product{{ID: "1", Name: "Ball A"}, {ID: "2", Name: "Jersey"}}
	mine := []models.Product{{ID: "1", Name: "Ball A"}}

	mockRepo.On("GetAll").Return(all, nil).Twice()
	mockRepo.On("GetByOwner", "user-1").Return(mine, nil).Once()

	products, err := service.ListProducts(services.FilterAll, user)
	assert.NoError(t, err)
	assert.Equal(t, all, products)

	products, err = service.ListProducts(services.FilterMine, user)
	assert.NoError(t, err)
	assert.Equal(t, mine, products)

	// Unknown filters fall back to the full listing.
	products, err = service.ListProducts("bogus", user)
	assert.NoError(t, err)
	assert.Equal(t, all, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockUserRepository), nil)

	expectedProduct := &models.Product{ID: "1", Name: "Ball A", Price: 100000}

	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	product, err = service.GetProductByID("99")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	events := new(MockEventPublisher)
	service := newProductService(mockRepo, new(MockUserRepository), events)
	owner := &models.User{ID: "user-1"}

	newProduct := &models.Product{Name: "Ball A", Category: "ball", Brand: "nike", Price: 100000, Description: "x", ProductViews: 7}

	mockRepo.On("Create", newProduct).Return(nil).Once()
	events.On("PublishProductEvent", services.EventProductCreated, mock.Anything).Return(nil).Once()

	err := service.CreateProduct(newProduct, owner)
	assert.NoError(t, err)
	assert.True(t, newProduct.OwnedBy("user-1"))
	assert.Zero(t, newProduct.ProductViews)
	assert.False(t, newProduct.IsTrending())

	// A nil owner creates an owner-less product.
	anonymous := &models.Product{Name: "Socks", Description: "y"}
	mockRepo.On("Create", anonymous).Return(nil).Once()
	events.On("PublishProductEvent", services.EventProductCreated, mock.Anything).Return(nil).Once()
	assert.NoError(t, service.CreateProduct(anonymous, nil))
	assert.False(t, anonymous.HasOwner())

	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(newProduct, owner)
	assert.ErrorContains(t, err, "database error")

	mockRepo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestProductService_PublishFailureDoesNotFailWrite(t *testing.T) {
	mockRepo := new(MockProductRepository)
	events := new(MockEventPublisher)
	service := newProductService(mockRepo, new(MockUserRepository), events)

	product := &models.Product{ID: "1", Name: "Ball A"}
	mockRepo.On("Update", product).Return(nil).Once()
	events.On("PublishProductEvent", services.EventProductUpdated, mock.Anything).Return(fmt.Errorf("broker down")).Once()

	assert.NoError(t, service.UpdateProduct(product))
	events.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockUserRepository), nil)

	updatedProduct := &models.Product{ID: "1", Name: "Ball A Updated", Price: 120000}

	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	assert.NoError(t, service.UpdateProduct(updatedProduct))

	missing := &models.Product{ID: "99", Name: "NonExistent"}
	mockRepo.On("Update", missing).Return(fmt.Errorf("product with ID 99 for update: %w", repositories.ErrProductNotFound)).Once()
	err := service.UpdateProduct(missing)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	events := new(MockEventPublisher)
	service := newProductService(mockRepo, new(MockUserRepository), events)

	mockRepo.On("Delete", "1").Return(nil).Once()
	events.On("PublishProductEvent", services.EventProductDeleted, mock.MatchedBy(func(p map[string]interface{}) bool {
		return p["id"] == "1"
	})).Return(nil).Once()
	assert.NoError(t, service.DeleteProduct("1"))

	mockRepo.On("Delete", "99").Return(fmt.Errorf("product with ID 99 for deletion: %w", repositories.ErrProductNotFound)).Once()
	err := service.DeleteProduct("99")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	mockRepo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestProductService_ViewProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockUserRepository), nil)

	viewed := &models.Product{ID: "1", Name: "Ball A", ProductViews: 21}
	mockRepo.On("IncrementViews", "1").Return(nil).Once()
	mockRepo.On("GetByID", "1").Return(viewed, nil).Once()

	product, err := service.ViewProduct("1")
	assert.NoError(t, err)
	assert.True(t, product.IsTrending())

	mockRepo.On("IncrementViews", "99").Return(fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	_, err = service.ViewProduct("99")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_OwnerUsername(t *testing.T) {
	users := new(MockUserRepository)
	service := newProductService(new(MockProductRepository), users, nil)

	name, ok, err := service.OwnerUsername(&models.Product{ID: "1"})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)

	owned := &models.Product{ID: "2"}
	owned.SetOwner(&models.User{ID: "user-1"})
	users.On("GetByID", "user-1").Return(&models.User{ID: "user-1", Username: "budi"}, nil).Once()
	name, ok, err = service.OwnerUsername(owned)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "budi", name)

	users.On("GetByID", "user-1").Return(nil, fmt.Errorf("user with ID user-1: %w", repositories.ErrUserNotFound)).Once()
	_, ok, err = service.OwnerUsername(owned)
	assert.NoError(t, err)
	assert.False(t, ok)
	users.AssertExpectations(t)
}
