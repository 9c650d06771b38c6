package services

import (
	"errors"

	"github.com/google/uuid"

	"stockroom/internal/domain"
	"stockroom/internal/hierarchy"
	"stockroom/internal/repos"
)

var ErrNoCategory = errors.New("product needs at least one category")

type ProductService struct {
	Prods *repos.ProductRepo
	Cats  *repos.CategoryRepo
}

func NewProductService(prods *repos.ProductRepo, cats *repos.CategoryRepo) *ProductService {
	return &ProductService{Prods: prods, Cats: cats}
}

func (s *ProductService) List(page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.Prods.List(pageSize, offset)
}

// ProductDetail pairs a product with the full paths of its categories for
// breadcrumb-style display.
type ProductDetail struct {
	Product       domain.Product
	StatusLabel   string
	CategoryIDs   []int64
	CategoryPaths []string
}

func (s *ProductService) Get(id string) (ProductDetail, error) {
	p, err := s.Prods.Get(id)
	if err != nil {
		return ProductDetail{}, err
	}
	catIDs, err := s.Prods.CategoryIDs(id)
	if err != nil {
		return ProductDetail{}, err
	}
	cats, err := s.Cats.All()
	if err != nil {
		return ProductDetail{}, err
	}
	snap := hierarchy.NewSnapshot(cats)
	paths := make([]string, 0, len(catIDs))
	for _, cid := range catIDs {
		path, err := snap.FullPath(cid)
		if err != nil {
			return ProductDetail{}, err
		}
		paths = append(paths, path)
	}
	return ProductDetail{
		Product:       p,
		StatusLabel:   domain.StatusLabel(p.Status),
		CategoryIDs:   catIDs,
		CategoryPaths: paths,
	}, nil
}

type ProductInput struct {
	Name        string
	SKU         string
	Description string
	Price       float64
	Status      string
	CategoryIDs []int64
}

func (s *ProductService) Create(in ProductInput) (string, error) {
	if err := s.checkCategories(in.CategoryIDs); err != nil {
		return "", err
	}
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		SKU:         in.SKU,
		Description: in.Description,
		Price:       in.Price,
		Status:      in.Status,
	}
	if p.Status == "" {
		p.Status = "ACTIVE"
	}
	if err := s.Prods.Insert(p, in.CategoryIDs); err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *ProductService) Update(id string, in ProductInput) error {
	if err := s.checkCategories(in.CategoryIDs); err != nil {
		return err
	}
	p, err := s.Prods.Get(id)
	if err != nil {
		return err
	}
	p.Name = in.Name
	p.SKU = in.SKU
	p.Description = in.Description
	p.Price = in.Price
	if in.Status != "" {
		p.Status = in.Status
	}
	return s.Prods.Update(p, in.CategoryIDs)
}

func (s *ProductService) Delete(id string) error {
	return s.Prods.Delete(id)
}

// checkCategories requires at least one attachment and that every id
// exists; a dangling attachment would corrupt the count aggregates.
func (s *ProductService) checkCategories(ids []int64) error {
	if len(ids) == 0 {
		return ErrNoCategory
	}
	cats, err := s.Cats.All()
	if err != nil {
		return err
	}
	snap := hierarchy.NewSnapshot(cats)
	for _, id := range ids {
		if _, ok := snap.Get(id); !ok {
			return hierarchy.ErrNotFound
		}
	}
	return nil
}
