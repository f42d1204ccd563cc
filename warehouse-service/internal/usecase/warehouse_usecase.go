package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperrors "github.com/director74/order_saga/pkg/errors"
	"github.com/director74/order_saga/pkg/saga"
	"github.com/director74/order_saga/warehouse-service/internal/entity"
)

type WarehouseRepository interface {
	CreateProduct(ctx context.Context, product *entity.Product) error
	GetProductByID(ctx context.Context, id uint) (*entity.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]entity.Product, int64, error)
	GetReservationByOrderID(ctx context.Context, orderID uint) (*entity.Reservation, error)
	Reserve(ctx context.Context, orderID, productID uint, quantity int) (*entity.Reservation, error)
	Release(ctx context.Context, orderID uint) error
	Commit(ctx context.Context, orderID uint) (bool, error)
}

type WarehouseUseCase struct {
	repo   WarehouseRepository
	logger zerolog.Logger
}

func NewWarehouseUseCase(repo WarehouseRepository, logger zerolog.Logger) *WarehouseUseCase {
	return &WarehouseUseCase{
		repo:   repo,
		logger: logger.With().Str("component", "warehouse_usecase").Logger(),
	}
}

func (uc *WarehouseUseCase) CreateProduct(ctx context.Context, req entity.CreateProductRequest) (*entity.ProductResponse, error) {
	if req.Price.IsNegative() {
		return nil, apperrors.NewBadRequestError("цена не может быть отрицательной")
	}

	product := &entity.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
	}
	if err := uc.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	uc.logger.Info().Uint("product_id", product.ID).Int64("stock", product.Stock).Msg("товар создан")
	return toProductResponse(*product), nil
}

func (uc *WarehouseUseCase) GetProduct(ctx context.Context, id uint) (*entity.ProductResponse, error) {
	product, err := uc.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(*product), nil
}

func (uc *WarehouseUseCase) ListProducts(ctx context.Context, limit, offset int) (entity.ListProductsResponse, error) {
	products, total, err := uc.repo.ListProducts(ctx, limit, offset)
	if err != nil {
		return entity.ListProductsResponse{}, err
	}

	resp := entity.ListProductsResponse{
		Products: make([]entity.ProductResponse, 0, len(products)),
		Total:    total,
	}
	for _, p := range products {
		resp.Products = append(resp.Products, *toProductResponse(p))
	}
	return resp, nil
}

// ReserveStock отвечает Success=false, если товара не хватает. Ошибка
// возвращается только при сбое хранилища.
func (uc *WarehouseUseCase) ReserveStock(ctx context.Context, req entity.StockRequest) (entity.StockResponse, error) {
	_, err := uc.repo.Reserve(ctx, req.OrderID, req.ProductID, req.Quantity)
	if errors.Is(err, entity.ErrInsufficientStock) {
		uc.logger.Info().Uint("order_id", req.OrderID).Uint("product_id", req.ProductID).
			Int("quantity", req.Quantity).Msg("в резерве отказано")
		return entity.StockResponse{Success: false, Message: err.Error(), OrderID: req.OrderID}, nil
	}
	if err != nil {
		return entity.StockResponse{}, err
	}

	uc.logger.Info().Uint("order_id", req.OrderID).Uint("product_id", req.ProductID).
		Int("quantity", req.Quantity).Msg("товар зарезервирован")
	return entity.StockResponse{Success: true, OrderID: req.OrderID}, nil
}

// ReleaseStock снимает резерв заказа, повторное снятие тоже успешно.
func (uc *WarehouseUseCase) ReleaseStock(ctx context.Context, req entity.StockRequest) (entity.StockResponse, error) {
	err := uc.repo.Release(ctx, req.OrderID)
	if errors.Is(err, entity.ErrReservationCommitted) {
		uc.logger.Warn().Uint("order_id", req.OrderID).Msg("запрошено снятие уже списанного резерва")
		return entity.StockResponse{Success: false, Message: err.Error(), OrderID: req.OrderID}, nil
	}
	if err != nil {
		return entity.StockResponse{}, err
	}

	uc.logger.Info().Uint("order_id", req.OrderID).Msg("резерв снят")
	return entity.StockResponse{Success: true, OrderID: req.OrderID}, nil
}

func (uc *WarehouseUseCase) GetReservation(ctx context.Context, orderID uint) (*entity.Reservation, error) {
	return uc.repo.GetReservationByOrderID(ctx, orderID)
}

// HandleSagaEvent списывает резерв завершенной саги и снимает то,
// что могла оставить отмененная сага.
func (uc *WarehouseUseCase) HandleSagaEvent(ctx context.Context, event saga.SagaEvent) error {
	log := uc.logger.With().Uint("saga_id", event.SagaID).Uint("order_id", event.OrderID).Logger()

	if !event.Completed() {
		err := uc.repo.Release(ctx, event.OrderID)
		if errors.Is(err, entity.ErrReservationCommitted) {
			log.Warn().Msg("отмененная сага ссылается на списанный резерв")
			return nil
		}
		return err
	}

	committed, err := uc.repo.Commit(ctx, event.OrderID)
	if err != nil {
		return err
	}
	if committed {
		log.Info().Msg("резерв списан")
	} else {
		log.Debug().Msg("нет активного резерва для списания")
	}
	return nil
}

func toProductResponse(p entity.Product) *entity.ProductResponse {
	return &entity.ProductResponse{Product: p, Available: p.Available()}
}
