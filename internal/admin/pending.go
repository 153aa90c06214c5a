package admin

import (
	"fmt"

	"github.com/Skotchmaster/storefront/internal/backend"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCreateProduct
	ActionCreateCategory
	ActionDeleteCategory
	ActionDeleteProduct
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionCreateProduct:
		return "create_product"
	case ActionCreateCategory:
		return "create_category"
	case ActionDeleteCategory:
		return "delete_category"
	case ActionDeleteProduct:
		return "delete_product"
	default:
		return "unknown"
	}
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type CategoryInput struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// PendingAction is a mutation waiting for the admin to confirm it. Only the
// field matching Kind is set.
type PendingAction struct {
	Kind     ActionKind            `json:"kind"`
	ID       int64                 `json:"id,omitempty"`
	Product  *backend.ProductInput `json:"product,omitempty"`
	Category *CategoryInput        `json:"category,omitempty"`
}

func (p PendingAction) IsZero() bool {
	return p.Kind == ActionNone
}

// Message is the question put to the admin before the action runs.
func (p PendingAction) Message() string {
	switch p.Kind {
	case ActionCreateProduct:
		return "Are you sure you want to add this product?"
	case ActionCreateCategory:
		return fmt.Sprintf("Are you sure you want to add the category \"%s\" for state \"%s\"?", p.Category.Name, p.Category.State)
	case ActionDeleteCategory:
		return "Are you sure you want to delete this category?"
	case ActionDeleteProduct:
		return "Are you sure you want to delete this product?"
	default:
		return ""
	}
}
