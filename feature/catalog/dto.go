package catalog

import (
	"reattach/core/bridge"
	"reattach/feature/catalog/models"
)

// Association carries one collection across the detached boundary. The server
// sends either the descriptor itself or the token it was stored under; the client
// echoes it back with the members it holds now. Nil Items means the client did not
// touch the collection.
type Association[T any] struct {
	Token      string                       `json:"token,omitempty"`
	Descriptor *bridge.CollectionDescriptor `json:"descriptor,omitempty"`
	Items      []T                          `json:"items"`
}

// TagDTO is the wire form of a tag.
type TagDTO struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// OrderDTO is the wire form of an order.
type OrderDTO struct {
	ID         uint   `json:"id"`
	Reference  string `json:"reference"`
	TotalCents int64  `json:"totalCents"`
}

// CustomerDTO is the detached form of a customer.
type CustomerDTO struct {
	ID           uint                  `json:"id"`
	Name         string                `json:"name"`
	Status       string                `json:"status"`
	Address      models.Address        `json:"address"`
	BalanceCents int64                 `json:"balanceCents"`
	Tags         Association[TagDTO]   `json:"tags"`
	Orders       Association[OrderDTO] `json:"orders"`
}

// UpdateCustomerRequest replaces the scalar fields of a customer and reconciles
// the associations the client sends back.
type UpdateCustomerRequest struct {
	Name         string                 `json:"name"`
	Status       string                 `json:"status"`
	Address      models.Address         `json:"address"`
	BalanceCents int64                  `json:"balanceCents"`
	Tags         *Association[TagDTO]   `json:"tags,omitempty"`
	Orders       *Association[OrderDTO] `json:"orders,omitempty"`
}

// FetchOptions selects what GetCustomer loads and how descriptors travel.
type FetchOptions struct {
	// Orders fetches the orders; otherwise they travel as an uninitialized collection.
	Orders bool
	// Stateful keeps descriptors in the store and sends tokens instead.
	Stateful bool
}

// ClassificationDTO reports how the ORM sees a registered type.
type ClassificationDTO struct {
	Type           string `json:"type"`
	Classification string `json:"classification"`
	Persistent     bool   `json:"persistent"`
}

// UsageDTO counts the customers carrying a tag.
type UsageDTO struct {
	TagID     uint  `json:"tagId"`
	Customers int64 `json:"customers"`
}

func tagDTO(t *models.Tag) TagDTO {
	return TagDTO{ID: t.ID, Label: t.Label}
}

func orderDTO(o *models.Order) OrderDTO {
	return OrderDTO{ID: o.ID, Reference: o.Reference, TotalCents: o.Total.Cents}
}

// tagModels keeps nil apart from empty: nil leaves the collection as captured.
func tagModels(items []TagDTO) []*models.Tag {
	if items == nil {
		return nil
	}
	out := make([]*models.Tag, 0, len(items))
	for _, item := range items {
		out = append(out, &models.Tag{ID: item.ID, Label: item.Label})
	}
	return out
}

func orderModels(items []OrderDTO) []*models.Order {
	if items == nil {
		return nil
	}
	out := make([]*models.Order, 0, len(items))
	for _, item := range items {
		out = append(out, &models.Order{ID: item.ID, Reference: item.Reference, Total: models.Money{Cents: item.TotalCents}})
	}
	return out
}
