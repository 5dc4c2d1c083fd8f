package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/shopnest/internal/model"
)

const productColumns = `id, name, description, price, category, stock, images, ratings, num_of_reviews, reviews, user_id, version, created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p       model.Product
		images  []byte
		reviews []byte
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock,
		&images, &p.Ratings, &p.NumOfReviews, &reviews, &p.UserID, &p.Version, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
			return nil, fmt.Errorf("decode reviews: %w", err)
		}
	}

	return &p, nil
}

func encodeProductDocs(p *model.Product) ([]byte, []byte, error) {
	images := p.Images
	if images == nil {
		images = []model.Image{}
	}

	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, nil, fmt.Errorf("encode images: %w", err)
	}

	reviewsJSON, err := json.Marshal(p.Reviews)
	if err != nil {
		return nil, nil, fmt.Errorf("encode reviews: %w", err)
	}

	return imagesJSON, reviewsJSON, nil
}

// CreateProduct сохраняет новый товар. Документ всегда проверяется перед вставкой.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	images, reviews, err := encodeProductDocs(p)
	if err != nil {
		return err
	}

	err = r.withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO products (id, name, description, price, category, stock, images, ratings, num_of_reviews, reviews, user_id, version, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12)`,
			p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock,
			images, p.Ratings, p.NumOfReviews, reviews, p.UserID, p.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product %s", ErrDuplicate, p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	p.Version = 1
	return nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

// SaveProduct записывает изменения товара, если его версия в БД совпадает с прочитанной.
// При несовпадении возвращается ErrStaleDocument, при успехе версия увеличивается.
func (r *PostgresRepository) SaveProduct(ctx context.Context, p *model.Product, opts SaveOptions) error {
	if opts.Validate {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	images, reviews, err := encodeProductDocs(p)
	if err != nil {
		return err
	}

	var affected int64
	err = r.withRetry(ctx, func() error {
		tag, err := r.db.Exec(ctx,
			`UPDATE products
			 SET name = $2, description = $3, price = $4, category = $5, stock = $6,
			     images = $7, ratings = $8, num_of_reviews = $9, reviews = $10, version = version + 1
			 WHERE id = $1 AND version = $11`,
			p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock,
			images, p.Ratings, p.NumOfReviews, reviews, p.Version,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if affected == 0 {
		var current int
		err := r.db.QueryRow(ctx, `SELECT version FROM products WHERE id = $1`, p.ID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("check product version: %w", err)
		}
		return fmt.Errorf("%w: product %s has version %d, expected %d", ErrStaleDocument, p.ID, current, p.Version)
	}

	p.Version++
	return nil
}

// ListProducts возвращает страницу товаров по фильтру и общее число товаров в каталоге.
func (r *PostgresRepository) ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Keyword != "" {
		add("name ILIKE '%%' || $%d || '%%'", f.Keyword)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

// DeleteProduct удаляет товар и возвращает число удалённых записей.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete product: %w", err)
	}
	return tag.RowsAffected(), nil
}
