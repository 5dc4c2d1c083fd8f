package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/repository"
)

func productInput(name string) ProductInput {
	return ProductInput{
		Name:        name,
		Description: "desc",
		Price:       decimal.NewFromInt(15),
		Category:    "Kitchen",
		Stock:       3,
		Images:      []model.Image{{PublicID: "p1", URL: "http://img/p1"}},
	}
}

func TestCreateProduct(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	creator := uuid.New()

	p, err := svc.CreateProduct(context.Background(), creator, productInput("Kettle"))
	require.NoError(t, err)
	assert.Equal(t, creator, p.UserID)
	assert.Equal(t, 0, p.NumOfReviews)

	got, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kettle", got.Name)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})

	in := productInput("")
	in.Stock = 10000

	_, err := svc.CreateProduct(context.Background(), uuid.New(), in)
	requireKind(t, err, apperror.KindValidationFailed)

	var e *apperror.Error
	require.ErrorAs(t, err, &e)
	fields := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "stock"}, fields)
}

func TestListProducts_Pagination(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})

	for i := 0; i < 10; i++ {
		i := i
		svc.now = func() time.Time { return fixedNow.Add(time.Duration(i) * time.Minute) }
		_, err := svc.CreateProduct(context.Background(), uuid.New(), productInput(fmt.Sprintf("Item %d", i)))
		require.NoError(t, err)
	}

	first, err := svc.ListProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, first.Products, ProductsPerPage)
	assert.Equal(t, 10, first.ProductCount)
	assert.Equal(t, "Item 9", first.Products[0].Name)

	second, err := svc.ListProducts(context.Background(), ProductQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Products, 2)

	empty, err := svc.ListProducts(context.Background(), ProductQuery{Keyword: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Products)
	assert.Empty(t, empty.Products)
	assert.Equal(t, 10, empty.ProductCount)
}

func TestUpdateProduct_PatchKeepsReviews(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	p := seedProduct(t, repo, 10, review(uuid.New(), 4))

	name := "Copper kettle"
	stock := 2
	got, err := svc.UpdateProduct(context.Background(), p.ID, ProductPatch{Name: &name, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Copper kettle", got.Name)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, "Steel kettle", got.Description)
	assert.Equal(t, 1, got.NumOfReviews)
	assert.Equal(t, 4.0, got.Ratings)

	bad := -1
	_, err = svc.UpdateProduct(context.Background(), p.ID, ProductPatch{Stock: &bad})
	requireKind(t, err, apperror.KindValidationFailed)
	assert.Equal(t, 2, loadProduct(t, repo, p.ID).Stock)

	_, err = svc.UpdateProduct(context.Background(), uuid.New(), ProductPatch{Name: &name})
	requireKind(t, err, apperror.KindNotFound)
}

func TestDeleteProduct(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	p := seedProduct(t, repo, 10)

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID))

	err := svc.DeleteProduct(context.Background(), p.ID)
	requireKind(t, err, apperror.KindNotFound)

	_, err = svc.GetProduct(context.Background(), p.ID)
	requireKind(t, err, apperror.KindNotFound)
}

func TestCreateProduct_RejectsNegativeStock(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})

	in := productInput("Kettle")
	in.Stock = -1

	_, err := svc.CreateProduct(context.Background(), uuid.New(), in)
	requireKind(t, err, apperror.KindValidationFailed)

	_, total, err := repo.ListProducts(context.Background(), repository.ProductFilter{Limit: ProductsPerPage})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUpdateProduct_OversoldProductAcceptsOtherFields(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	p := seedProduct(t, repo, 10)

	oversold := loadProduct(t, repo, p.ID)
	oversold.Stock = -4
	require.NoError(t, repo.SaveProduct(context.Background(), oversold, repository.Relaxed))

	name := "Copper kettle"
	price := decimal.NewFromInt(99)
	got, err := svc.UpdateProduct(context.Background(), p.ID, ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Copper kettle", got.Name)
	assert.Equal(t, -4, got.Stock)

	restock := 6
	got, err = svc.UpdateProduct(context.Background(), p.ID, ProductPatch{Stock: &restock})
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)
}
