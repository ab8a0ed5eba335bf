// File: internal/product/service.go
package product

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/filestorage"
	"green_planet_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service contains the business logic for products.
type Service struct {
	repo     Repository
	esClient *elasticsearch.ESClientWrapper
	files    *filestorage.Service
	logger   *zap.Logger
}

// NewService creates a new product service. esClient may be nil, in which
// case search queries run against the database directly.
func NewService(repo Repository, esClient *elasticsearch.ESClientWrapper, files *filestorage.Service, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		esClient: esClient,
		files:    files,
		logger:   logger.Named("ProductService"),
	}
}

// Create stores a new product owned by ownerID, saving any uploaded images first.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateProductRequest, images []*multipart.FileHeader) (*Product, error) {
	if !IsValidCategory(req.Category) {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Category %q is not valid.", req.Category))
	}

	var imageURLs []string
	for _, fh := range images {
		url, err := s.files.SaveImage(fh)
		if err != nil {
			return nil, common.ErrBadRequest.WithDetails(err.Error())
		}
		imageURLs = append(imageURLs, url)
	}

	p := &Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Images:      imageURLs,
		UserID:      ownerID,
		Status:      StatusActive,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, common.ErrInternalServer
	}

	s.indexProduct(ctx, p)
	return p, nil
}

// GetByID returns a single product with its reviews.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns products matching the query. When a search term is present and
// Elasticsearch is configured, relevance-ranked ids come from the index and
// the database supplies the records.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Product, int64, error) {
	if q.Search != "" && s.esClient != nil {
		products, total, err := s.searchViaES(ctx, q)
		if err == nil {
			return products, total, nil
		}
		s.logger.Warn("Search index query failed, falling back to the database", zap.Error(err))
	}
	return s.repo.List(ctx, q)
}

// Update applies changes to a product. Only the owner or an admin may update.
func (s *Service) Update(ctx context.Context, id, actorID uuid.UUID, actorRole string, req UpdateProductRequest) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID && actorRole != common.RoleAdmin {
		return nil, common.ErrForbidden.WithDetails("Only the owner may modify this product.")
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		if !IsValidCategory(*req.Category) {
			return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Category %q is not valid.", *req.Category))
		}
		p.Category = *req.Category
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Status != nil {
		p.Status = *req.Status
	}

	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update product", zap.String("productID", id.String()), zap.Error(err))
		return nil, common.ErrInternalServer
	}

	s.indexProduct(ctx, p)
	return p, nil
}

// Delete removes a product. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID, actorRole string) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != actorID && actorRole != common.RoleAdmin {
		return common.ErrForbidden.WithDetails("Only the owner may delete this product.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, img := range p.Images {
		s.files.Delete(img)
	}
	s.removeFromIndex(ctx, id)
	return nil
}

// AddReview records a review. Users cannot review their own products, and the
// storage layer rejects a second review from the same user.
func (s *Service) AddReview(ctx context.Context, productID, userID uuid.UUID, req AddReviewRequest) (*Product, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.UserID == userID {
		return nil, common.ErrForbidden.WithDetails("You cannot review your own product.")
	}

	review := &Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.repo.AddReview(ctx, review); err != nil {
		return nil, err
	}

	if err := s.repo.RecalculateRating(ctx, productID); err != nil {
		s.logger.Warn("Failed to refresh rating stats", zap.String("productID", productID.String()), zap.Error(err))
	}

	updated, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.indexProduct(ctx, updated)
	return updated, nil
}

// ToggleLike flips the user's like on a product and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return false, err
	}
	return s.repo.ToggleLike(ctx, productID, userID)
}

// indexProduct writes the product document to the search index, best effort.
func (s *Service) indexProduct(ctx context.Context, p *Product) {
	if s.esClient == nil {
		return
	}

	doc := ToESDocument(p)
	payload, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("Failed to marshal product for indexing", zap.Error(err))
		return
	}

	req := esapi.IndexRequest{
		Index:      elasticsearch.ProductsIndexName,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, s.esClient.Client)
	if err != nil {
		s.logger.Warn("Failed to index product", zap.String("productID", doc.ID), zap.Error(err))
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Warn("Search index rejected product document",
			zap.String("productID", doc.ID),
			zap.String("status", res.Status()))
	}
}

// removeFromIndex deletes the product document from the search index, best effort.
func (s *Service) removeFromIndex(ctx context.Context, id uuid.UUID) {
	if s.esClient == nil {
		return
	}

	req := esapi.DeleteRequest{
		Index:      elasticsearch.ProductsIndexName,
		DocumentID: id.String(),
	}
	res, err := req.Do(ctx, s.esClient.Client)
	if err != nil {
		s.logger.Warn("Failed to remove product from index", zap.String("productID", id.String()), zap.Error(err))
		return
	}
	res.Body.Close()
}

func (s *Service) searchViaES(ctx context.Context, q ListQuery) ([]Product, int64, error) {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":  q.Search,
				"fields": []string{"name^2", "description"},
			},
		},
	}
	filter := []map[string]interface{}{}
	if q.Category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category": q.Category},
		})
	}
	if q.Status != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"status": q.Status},
		})
	}

	query := map[string]interface{}{
		"from": (q.Page - 1) * q.PageSize,
		"size": q.PageSize,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, 0, fmt.Errorf("encoding search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(elasticsearch.ProductsIndexName),
		s.esClient.Search.WithBody(&buf),
		s.esClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("executing search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search returned status %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decoding search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, parseErr := uuid.Parse(hit.ID)
		if parseErr != nil {
			continue
		}
		ids = append(ids, id)
	}

	products, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return products, parsed.Hits.Total.Value, nil
}
