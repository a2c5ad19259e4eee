package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx        repo.TransactionManager
	products  repo.ProductRepository
	validator ProductValidator
	pageSize  int
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	validator ProductValidator,
	pageSize int,
) *ProductUsecase {
	if pageSize < 1 {
		pageSize = model.CatalogPageSize
	}
	return &ProductUsecase{
		tx:        tx,
		products:  products,
		validator: validator,
		pageSize:  pageSize,
	}
}

type ProductListOutput struct {
	Items []model.Product  `json:"items"`
	Page  model.PageResult `json:"page"`
}

// ListProducts は1ページ分の商品とページ情報を返す。page < 1 は1ページ目。
func (u *ProductUsecase) ListProducts(ctx context.Context, page int) (ProductListOutput, error) {
	total, err := u.products.Count(ctx)
	if err != nil {
		return ProductListOutput{}, NewPersistenceError(err)
	}

	pr := model.NewPageResult(total, u.pageSize, page)
	items, err := u.products.List(ctx, pr.Offset(), pr.PageSize)
	if err != nil {
		return ProductListOutput{}, NewPersistenceError(err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return ProductListOutput{Items: items, Page: pr}, nil
}

// AdminListProducts は who が作成した商品だけを1ページ分返す。
func (u *ProductUsecase) AdminListProducts(ctx context.Context, who model.Identity, page int) (ProductListOutput, error) {
	if err := requireAdmin(who); err != nil {
		return ProductListOutput{}, err
	}

	total, err := u.products.CountByOwner(ctx, who.ID)
	if err != nil {
		return ProductListOutput{}, NewPersistenceError(err)
	}

	pr := model.NewPageResult(total, u.pageSize, page)
	items, err := u.products.ListByOwner(ctx, who.ID, pr.Offset(), pr.PageSize)
	if err != nil {
		return ProductListOutput{}, NewPersistenceError(err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return ProductListOutput{Items: items, Page: pr}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id", map[string]string{"id": "must be positive"})
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError("not found")
	}
	if err != nil {
		return model.Product{}, NewPersistenceError(err)
	}
	return p, nil
}

// 管理画面の商品入力
type ProductInput struct {
	Title       string `json:"title" validate:"required,min=3"`
	Price       string `json:"price" validate:"required,price"`
	Description string `json:"description" validate:"min=5,max=400"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

func (in ProductInput) normalize() ProductInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Price = strings.TrimSpace(in.Price)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, who model.Identity, in ProductInput) (model.Product, error) {
	if err := requireAdmin(who); err != nil {
		return model.Product{}, err
	}
	in = in.normalize()
	if err := u.validator.ValidateProduct(in); err != nil {
		return model.Product{}, err
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return model.Product{}, NewValidationError("invalid input", map[string]string{"price": "must be a decimal"})
	}

	var created model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Title:       in.Title,
			Description: in.Description,
			Price:       price.Round(2),
			ImageURL:    in.ImageURL,
			UserID:      who.ID,
		})
		if err != nil {
			return err
		}
		created = p

		//監査ログを作成（商品作成）
		return r.AuditLogs().Create(ctx, newProductAudit(who, model.AuditActionCreateProduct, p.ID, nil, &p))
	})
	if err != nil {
		return model.Product{}, asPersistence(err)
	}
	return created, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, who model.Identity, productID int64, in ProductInput) (model.Product, error) {
	if err := requireAdmin(who); err != nil {
		return model.Product{}, err
	}
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id", map[string]string{"id": "must be positive"})
	}
	in = in.normalize()
	if err := u.validator.ValidateProduct(in); err != nil {
		return model.Product{}, err
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return model.Product{}, NewValidationError("invalid input", map[string]string{"price": "must be a decimal"})
	}

	var updated model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前（before）
		before, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		after := before
		after.Title = in.Title
		after.Description = in.Description
		after.Price = price.Round(2)
		after.ImageURL = in.ImageURL
		if err := r.Products().Update(ctx, after); err != nil {
			return err
		}
		updated = after

		return r.AuditLogs().Create(ctx, newProductAudit(who, model.AuditActionUpdateProduct, productID, &before, &after))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError("not found")
	}
	if err != nil {
		return model.Product{}, asPersistence(err)
	}
	return updated, nil
}

// AdminDeleteProduct は論理削除。既存の注文のスナップショットには影響しない。
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, who model.Identity, productID int64) error {
	if err := requireAdmin(who); err != nil {
		return err
	}
	if productID <= 0 {
		return NewValidationError("invalid product id", map[string]string{"id": "must be positive"})
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, newProductAudit(who, model.AuditActionDeleteProduct, productID, &before, nil))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewNotFoundError("not found")
	}
	if err != nil {
		return asPersistence(err)
	}
	return nil
}

func requireAdmin(who model.Identity) error {
	if who.ID <= 0 {
		return NewUnauthorizedError()
	}
	if !who.IsAdmin() {
		return NewForbiddenError("admin only")
	}
	return nil
}

// 「誰が」「何を」「どの対象に」「どう変えたか」を残す
func newProductAudit(who model.Identity, action model.AuditAction, productID int64, before, after *model.Product) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  who.ID,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   productJSON(before),
		AfterJSON:    productJSON(after),
		CreatedAt:    time.Now().UTC(),
	}
}

func productJSON(p *model.Product) string {
	if p == nil {
		return ""
	}
	b, err := json.Marshal(struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Price       string `json:"price"`
		ImageURL    string `json:"image_url"`
	}{p.Title, p.Description, p.Price.StringFixed(2), p.ImageURL})
	if err != nil {
		return ""
	}
	return string(b)
}
