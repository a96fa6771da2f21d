package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"sweet-heaven/internal/model"
)

// ListPromotions fetches every promotion, active or not.
func (c *Client) ListPromotions(ctx context.Context) ([]model.Promotion, error) {
	var promotions []model.Promotion
	if err := c.do(ctx, http.MethodGet, "/promotions", nil, nil, &promotions); err != nil {
		return nil, err
	}
	if promotions == nil {
		promotions = []model.Promotion{}
	}
	return promotions, nil
}

// CreatePromotion creates a promotion.
func (c *Client) CreatePromotion(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error) {
	var promotion model.Promotion
	if err := c.do(ctx, http.MethodPost, "/promotions", nil, req, &promotion); err != nil {
		return nil, err
	}
	return &promotion, nil
}

// DeletePromotion deletes a promotion.
func (c *Client) DeletePromotion(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/promotions/"+strconv.FormatInt(id, 10), nil, nil, nil)
}
