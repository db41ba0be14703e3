package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloomcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/pricing"
	"github.com/angelmondragon/bloomcart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type stockChecker interface {
	AvailableQuantity(ctx context.Context, region types.Region, productID uuid.UUID) (int, error)
}

type regionalPricer interface {
	Quote(ctx context.Context, region types.Region, basePrice int64, discount any) (pricing.Quote, error)
}

// Service exposes the server-side cart of authenticated users.
type Service interface {
	Get(ctx context.Context, userID string) (*CartDTO, error)
	Add(ctx context.Context, userID string, input AddInput) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID string, input UpdateInput) (*CartDTO, error)
	Remove(ctx context.Context, userID string, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID string) (*CartDTO, error)
	Sync(ctx context.Context, userID string, input SyncInput) (*CartDTO, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	stock    stockChecker
	prices   regionalPricer
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, stock stockChecker, prices regionalPricer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock checker required")
	}
	if prices == nil {
		return nil, fmt.Errorf("regional pricer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		stock:    stock,
		prices:   prices,
		logg:     logg,
	}, nil
}

func (s *service) Get(ctx context.Context, userID string) (*CartDTO, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapCartError(err)
	}
	return fromModel(cart), nil
}

// Add merges Quantity into the product's line, creating the cart on first use.
// The merged quantity must fit the regional stock.
func (s *service) Add(ctx context.Context, userID string, input AddInput) (*CartDTO, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Quantity < 1 {
		return nil, invalidQuantity(input.Quantity)
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	available, err := s.stock.AvailableQuantity(ctx, input.Region, input.ProductID)
	if err != nil {
		return nil, err
	}
	quote, err := s.prices.Quote(ctx, input.Region, product.BasePrice, product.Discount)
	if err != nil {
		return nil, err
	}

	var out *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.findOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		requested := input.Quantity
		if line := findLine(cart, input.ProductID); line != nil {
			requested += line.Quantity
		}
		if requested > available {
			return pkgerrors.InsufficientStock(input.ProductID.String(), requested, available)
		}

		if err := repo.UpsertItem(ctx, snapshot(cart.ID, product, quote, requested)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		out, err = repo.FindByUserID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModel(out), nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID string, input UpdateInput) (*CartDTO, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Quantity < 1 {
		return nil, invalidQuantity(input.Quantity)
	}

	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapCartError(err)
	}
	if findLine(cart, input.ProductID) == nil {
		return nil, lineNotFound(input.ProductID)
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	available, err := s.stock.AvailableQuantity(ctx, input.Region, input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.Quantity > available {
		return nil, pkgerrors.InsufficientStock(input.ProductID.String(), input.Quantity, available)
	}
	quote, err := s.prices.Quote(ctx, input.Region, product.BasePrice, product.Discount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpsertItem(ctx, snapshot(cart.ID, product, quote, input.Quantity)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID string, productID uuid.UUID) (*CartDTO, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapCartError(err)
	}
	deleted, err := s.repo.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if !deleted {
		return nil, lineNotFound(productID)
	}
	return s.Get(ctx, userID)
}

// Clear empties the cart. A user without a cart is already cleared.
func (s *service) Clear(ctx context.Context, userID string) (*CartDTO, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	out := emptyCart(userID)
	out.UpdatedAt = cart.UpdatedAt
	return out, nil
}

// Sync stores the pushed list. Duplicate product ids are merged by summing quantities.
// A new cart is created from the list; an existing cart drops lines that were not pushed.
// Snapshots are refreshed from the catalogue. Stock is not re-checked.
func (s *service) Sync(ctx context.Context, userID string, input SyncInput) (*CartDTO, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}

	merged, order, err := mergePushed(input.Items)
	if err != nil {
		return nil, err
	}

	products := map[uuid.UUID]*models.Product{}
	if len(order) > 0 {
		rows, err := s.products.FindByIDs(ctx, order)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		for i := range rows {
			products[rows[i].ID] = &rows[i]
		}
		var missing []string
		for _, id := range order {
			if _, ok := products[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		if len(missing) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_ids": missing})
		}
	}

	quotes := make(map[uuid.UUID]pricing.Quote, len(order))
	for _, id := range order {
		p := products[id]
		quote, err := s.prices.Quote(ctx, input.Region, p.BasePrice, p.Discount)
		if err != nil {
			return nil, err
		}
		quotes[id] = quote
	}

	var out *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.findOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}
		for _, id := range order {
			if err := repo.UpsertItem(ctx, snapshot(cart.ID, products[id], quotes[id], merged[id])); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
			}
		}
		if err := repo.DeleteItemsExcept(ctx, cart.ID, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune cart items")
		}
		out, err = repo.FindByUserID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID, "items": len(out.Items)})
	s.logg.Info(ctx, "cart synced")
	return fromModel(out), nil
}

func (s *service) findOrCreate(ctx context.Context, repo CartRepository, userID string) (*models.Cart, error) {
	cart, err := repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	cart, err = repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": id.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
			WithDetails(map[string]any{"product_id": id.String()})
	}
	return product, nil
}

// snapshot stores the regional price before discount next to the normalised discount.
func snapshot(cartID uuid.UUID, product *models.Product, quote pricing.Quote, quantity int) *models.CartItem {
	return &models.CartItem{
		CartID:    cartID,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     quote.FinalBasePrice,
		ImageURL:  product.ImageURL,
		Discount:  quote.Discount.Int(),
		Quantity:  quantity,
	}
}

func mergePushed(items []ItemDTO) (map[uuid.UUID]int, []uuid.UUID, error) {
	merged := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
		}
		if item.Quantity < 1 {
			return nil, nil, invalidQuantity(item.Quantity)
		}
		if _, ok := merged[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		merged[item.ProductID] += item.Quantity
	}
	return merged, order, nil
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	return userID, nil
}

func invalidQuantity(q int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
		WithDetails(map[string]any{"quantity": q})
}

func lineNotFound(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found").
		WithDetails(map[string]any{"product_id": productID.String()})
}

func mapCartError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
}
