package handlers

import (
	"stockroom/internal/repos"
	"stockroom/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	SearchHandler   *SearchHandler
	APIHandler      *APIHandler
}

func NewDeps(db *sqlx.DB) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)

	catSvc := services.NewCategoryService(catRepo, prodRepo)
	prodSvc := services.NewProductService(prodRepo, catRepo)

	return &Deps{
		CategoryHandler: &CategoryHandler{Categories: catSvc},
		ProductHandler:  &ProductHandler{Products: prodSvc, Categories: catSvc},
		SearchHandler:   &SearchHandler{Categories: catSvc},
		APIHandler:      &APIHandler{Categories: catSvc},
	}
}
