package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/propview/showsched/internal/model"
)

// Page selects one page of a reference-data listing.
type Page struct {
	Number int
	Size   int
}

func (p Page) query() url.Values {
	q := url.Values{}
	if p.Number > 0 {
		q.Set("page", strconv.Itoa(p.Number))
	}
	if p.Size > 0 {
		q.Set("page_size", strconv.Itoa(p.Size))
	}
	return q
}

// LeadPage is one page of leads with the paging envelope echoed back.
type LeadPage struct {
	Items    []model.Lead `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type CondominiumPage struct {
	Items    []model.Condominium `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

type UnitPage struct {
	Items    []model.Unit `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// UnitFilter narrows the unit listing to one condominium and, typically,
// to units still available for showing.
type UnitFilter struct {
	CondominiumID string
	ActiveOnly    bool
}

func (c *Client) ListLeads(ctx context.Context, page Page) (LeadPage, error) {
	var out LeadPage
	if err := c.get(ctx, "/leads", page.query(), &out); err != nil {
		return LeadPage{}, err
	}
	return out, nil
}

func (c *Client) GetLead(ctx context.Context, id string) (model.Lead, error) {
	var out model.Lead
	if err := c.get(ctx, "/leads/"+url.PathEscape(id), nil, &out); err != nil {
		return model.Lead{}, err
	}
	if out.ID == "" {
		return model.Lead{}, fmt.Errorf("malformed lead payload for %s", id)
	}
	return out, nil
}

func (c *Client) ListCondominiums(ctx context.Context, page Page) (CondominiumPage, error) {
	var out CondominiumPage
	if err := c.get(ctx, "/condominiums", page.query(), &out); err != nil {
		return CondominiumPage{}, err
	}
	return out, nil
}

func (c *Client) ListUnits(ctx context.Context, filter UnitFilter, page Page) (UnitPage, error) {
	q := page.query()
	if filter.CondominiumID != "" {
		q.Set("condominium_id", filter.CondominiumID)
	}
	if filter.ActiveOnly {
		q.Set("active", "true")
	}
	var out UnitPage
	if err := c.get(ctx, "/units", q, &out); err != nil {
		return UnitPage{}, err
	}
	return out, nil
}

func (c *Client) GetUnit(ctx context.Context, id string) (model.Unit, error) {
	var out model.Unit
	if err := c.get(ctx, "/units/"+url.PathEscape(id), nil, &out); err != nil {
		return model.Unit{}, err
	}
	if out.ID == "" {
		return model.Unit{}, fmt.Errorf("malformed unit payload for %s", id)
	}
	return out, nil
}
