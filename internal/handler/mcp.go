// MCP transport handler for the POS service using the official MCP Go SDK.
// Exposes the same cart and checkout operations as the REST API so agent
// clients can drive a register session over MCP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"pos-sales/internal/checkout"
	"pos-sales/internal/model"
)

// === MCP Tool Input/Output Types ===

// LookupProductInput is the input schema for lookup_product.
type LookupProductInput struct {
	ProductID int64 `json:"product_id" jsonschema:"product ID,required"`
}

// SearchProductsInput is the input schema for search_products.
type SearchProductsInput struct {
	Query string `json:"query" jsonschema:"name prefix to search,required"`
}

// SearchProductsOutput wraps search matches.
type SearchProductsOutput struct {
	Matches []model.Product `json:"matches"`
}

// OpenSessionInput is the input schema for open_session.
type OpenSessionInput struct{}

// OpenSessionOutput returns the new session id.
type OpenSessionOutput struct {
	SessionID string `json:"session_id"`
}

// SessionInput identifies an existing session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID,required"`
}

// AddItemToolInput is the input schema for add_item. Code is the raw
// cashier token (numeric id or name fragment); product_id short-circuits
// resolution when the caller already picked a match.
type AddItemToolInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID,required"`
	Code      string `json:"code,omitempty" jsonschema:"product token: numeric ID or name fragment"`
	ProductID int64  `json:"product_id,omitempty" jsonschema:"resolved product ID, skips search"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"quantity, defaults to 1"`
}

// UpdateItemToolInput is the input schema for update_item.
// Quantity zero or below removes the line.
type UpdateItemToolInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID,required"`
	ProductID int64  `json:"product_id" jsonschema:"product ID,required"`
	Quantity  int    `json:"quantity" jsonschema:"new quantity, 0 removes the line,required"`
}

// CheckoutToolInput is the input schema for the checkout tool.
type CheckoutToolInput struct {
	SessionID     string `json:"session_id" jsonschema:"session ID,required"`
	PaymentMethod string `json:"payment_method,omitempty" jsonschema:"cash, credit, qr, or wallet; defaults to cash"`
}

// CancelSaleInput is the input schema for cancel_sale.
type CancelSaleInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID,required"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema:"true confirms discarding the cart"`
}

// CancelSaleOutput reports the cancel outcome and the resulting cart.
type CancelSaleOutput struct {
	Outcome string         `json:"outcome"`
	Cart    model.CartView `json:"cart"`
}

// NewMCPServer creates an MCP server with the register tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pos-sales",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "POS sales register. Open a session, add items by " +
				"product ID or name fragment, then checkout or cancel the sale.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_product",
		Description: "Look up one product by its numeric ID.",
	}, h.mcpLookupProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search products by name prefix.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "open_session",
		Description: "Open a new register session with an empty cart.",
	}, h.mcpOpenSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the session's current cart: lines and total.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_item",
		Description: "Add a product to the cart by ID or name fragment. Quantities merge onto existing lines.",
	}, h.mcpAddItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_item",
		Description: "Set a cart line's quantity. Zero or below removes the line.",
	}, h.mcpUpdateItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkout",
		Description: "Submit the cart as a sale and clear it on success. Payment method defaults to cash.",
	}, h.mcpCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_sale",
		Description: "Cancel the current sale. Requires confirm=true to discard a non-empty cart.",
	}, h.mcpCancelSale)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your router.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpLookupProduct(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input LookupProductInput,
) (*mcp.CallToolResult, *model.Product, error) {
	if input.ProductID <= 0 {
		return nil, nil, fmt.Errorf("product_id is required")
	}

	product, err := h.svc.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, product, nil
}

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchProductsInput,
) (*mcp.CallToolResult, *SearchProductsOutput, error) {
	matches, err := h.svc.SearchProducts(ctx, input.Query)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if matches == nil {
		matches = []model.Product{}
	}
	return nil, &SearchProductsOutput{Matches: matches}, nil
}

func (h *Handler) mcpOpenSession(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input OpenSessionInput,
) (*mcp.CallToolResult, *OpenSessionOutput, error) {
	s := h.sessions.Open()
	return nil, &OpenSessionOutput{SessionID: s.ID}, nil
}

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, *model.CartView, error) {
	s, err := h.sessions.Get(input.SessionID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	var view model.CartView
	s.With(func(c *checkout.Coordinator) error {
		view = c.View()
		return nil
	})
	return nil, &view, nil
}

func (h *Handler) mcpAddItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddItemToolInput,
) (*mcp.CallToolResult, *model.CartView, error) {
	s, err := h.sessions.Get(input.SessionID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	var view model.CartView
	err = s.With(func(c *checkout.Coordinator) error {
		_, err := c.AddItem(ctx, checkout.AddItemInput{
			Code:       input.Code,
			ResolvedID: input.ProductID,
			Quantity:   input.Quantity,
		})
		if err != nil {
			return err
		}
		view = c.View()
		return nil
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &view, nil
}

func (h *Handler) mcpUpdateItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateItemToolInput,
) (*mcp.CallToolResult, *model.CartView, error) {
	s, err := h.sessions.Get(input.SessionID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if input.ProductID <= 0 {
		return nil, nil, fmt.Errorf("product_id is required")
	}

	var view model.CartView
	s.With(func(c *checkout.Coordinator) error {
		c.UpdateQuantity(input.ProductID, input.Quantity)
		view = c.View()
		return nil
	})
	return nil, &view, nil
}

func (h *Handler) mcpCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CheckoutToolInput,
) (*mcp.CallToolResult, *model.Receipt, error) {
	s, err := h.sessions.Get(input.SessionID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	var receipt *model.Receipt
	err = s.With(func(c *checkout.Coordinator) error {
		var err error
		receipt, err = c.Checkout(ctx, input.PaymentMethod)
		return err
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, receipt, nil
}

func (h *Handler) mcpCancelSale(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CancelSaleInput,
) (*mcp.CallToolResult, *CancelSaleOutput, error) {
	s, err := h.sessions.Get(input.SessionID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	out := &CancelSaleOutput{}
	s.With(func(c *checkout.Coordinator) error {
		out.Outcome = string(c.Cancel(input.Confirm))
		out.Cart = c.View()
		return nil
	})
	return nil, out, nil
}

// mcpError converts domain errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
