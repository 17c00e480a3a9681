// Package product is the demo domain: a cached product lookup plus a
// repository of products kept as hashes.
package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachefront"
	"github.com/unkn0wn-root/cachefront/repository"
)

// Namespace is both the cache namespace and the repository keyspace.
const Namespace = "products"

type Product struct {
	ID    string `json:"id" kv:"id"`
	Name  string `json:"name" kv:"name"`
	Price int64  `json:"price" kv:"price"`
	TTL   int64  `json:"ttl,omitempty" kv:"ttl"` // seconds; 0 = no expiry
}

// New returns a product with a fresh random id.
func New(name string, price int64) Product {
	return Product{ID: uuid.NewString(), Name: name, Price: price}
}

// CacheTTL maps the product's ttl field to a cache TTL; 0 defers to the
// cache default.
func CacheTTL(p Product) time.Duration {
	if p.TTL <= 0 {
		return 0
	}
	return time.Duration(p.TTL) * time.Second
}

func NewRepository(b repository.Backend) (*repository.Repository[Product], error) {
	return repository.New[Product](b, Namespace)
}

// Service exposes cached reads, write-through saves and evicting removes.
type Service struct {
	log *zap.SugaredLogger

	get    cachefront.LoaderFunc[Product]
	save   func(context.Context, Product) (Product, error)
	remove func(context.Context, string) error
}

func NewService(c cachefront.Cache[Product], log *zap.SugaredLogger) *Service {
	s := &Service{log: log}
	s.get = cachefront.Cached(c, s.loadProduct)
	s.save = cachefront.CachePut(c, func(p Product) string { return p.ID }, s.saveProduct)
	s.remove = cachefront.CacheEvict(c, func(id string) string { return id }, s.removeProduct)
	return s
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.get(ctx, id)
}

func (s *Service) Save(ctx context.Context, p Product) (Product, error) {
	return s.save(ctx, p)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	return s.remove(ctx, id)
}

func (s *Service) loadProduct(_ context.Context, id string) (Product, error) {
	s.log.Infow("get product", "id", id)
	return Product{ID: id, Name: "example", Price: 1000}, nil
}

func (s *Service) saveProduct(_ context.Context, p Product) (Product, error) {
	s.log.Infow("save product", "id", p.ID, "name", p.Name, "price", p.Price)
	return p, nil
}

func (s *Service) removeProduct(_ context.Context, id string) error {
	s.log.Infow("remove product", "id", id)
	return nil
}
