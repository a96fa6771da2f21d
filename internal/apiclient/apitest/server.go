// Package apitest provides an in-memory storefront backend for tests.
package apitest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"sweet-heaven/internal/model"
	"sweet-heaven/internal/promotion"
	"sweet-heaven/internal/report"
)

// Server is a fake storefront REST API speaking the same JSON as the real
// backend. It prices checkouts with the promotions it holds.
type Server struct {
	*httptest.Server

	APIKey string
	Now    func() time.Time

	mu          sync.Mutex
	products    map[int64]model.Product
	cart        []model.CartLine
	orders      []model.Order
	promotions  []model.Promotion
	slips       map[string][]byte
	nextOrder   int
	nextPromo   int64
	unavailable bool
	requests    []string
}

// NewServer starts a fake backend with the given catalogue.
func NewServer(products ...model.Product) *Server {
	s := &Server{
		Now:       time.Now,
		products:  map[int64]model.Product{},
		slips:     map[string][]byte{},
		nextOrder: 1,
		nextPromo: 1,
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cart", s.getCart)
	mux.HandleFunc("PUT /api/cart/{id}", s.setCartQuantity)
	mux.HandleFunc("DELETE /api/cart", s.clearCart)
	mux.HandleFunc("POST /api/cart/checkout", s.checkout)
	mux.HandleFunc("GET /api/order", s.listOrders)
	mux.HandleFunc("GET /api/order/{id}", s.getOrder)
	mux.HandleFunc("PUT /api/order/{id}", s.updateOrder)
	mux.HandleFunc("DELETE /api/order/{id}", s.deleteOrder)
	mux.HandleFunc("POST /api/order/{id}/upload-slip", s.requestUpload)
	mux.HandleFunc("PUT /storage/slips/{id}", s.storeSlip)
	mux.HandleFunc("GET /api/promotions", s.listPromotions)
	mux.HandleFunc("POST /api/promotions", s.createPromotion)
	mux.HandleFunc("DELETE /api/promotions/{id}", s.deletePromotion)
	mux.HandleFunc("GET /api/products", s.listProducts)
	mux.HandleFunc("GET /api/reports/products/top", s.topProducts)

	s.Server = httptest.NewServer(s.middleware(mux))
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// SetUnavailable makes every API call fail with 503 until reset.
func (s *Server) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

// AddPromotion seeds a promotion and returns it with its assigned ID.
func (s *Server) AddPromotion(p model.Promotion) model.Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextPromo
	s.nextPromo++
	s.promotions = append(s.promotions, p)
	return p
}

// AddOrder seeds an order and returns its ID.
func (s *Server) AddOrder(o model.Order) model.OrderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = model.OrderID(strconv.Itoa(s.nextOrder))
	s.nextOrder++
	s.orders = append(s.orders, o)
	return o.ID
}

// Slip returns the bytes uploaded for an order.
func (s *Server) Slip(id model.OrderID) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slips[id.String()]
}

// Requests returns "METHOD path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		down := s.unavailable
		s.mu.Unlock()

		if strings.HasPrefix(r.URL.Path, "/api/") {
			if down {
				writeError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			if s.APIKey != "" && r.Header.Get("X-API-Key") != s.APIKey {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.cartLocked())
}

func (s *Server) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var body model.SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if body.Quantity > product.Stock {
		writeError(w, http.StatusBadRequest, "Insufficient stock")
		return
	}

	i := slices.IndexFunc(s.cart, func(l model.CartLine) bool { return l.ID == id })
	switch {
	case body.Quantity <= 0 && i >= 0:
		s.cart = slices.Delete(s.cart, i, i+1)
	case body.Quantity > 0 && i >= 0:
		s.cart[i].Quantity = body.Quantity
	case body.Quantity > 0:
		s.cart = append(s.cart, model.CartLine{Product: product, Quantity: body.Quantity})
	}
	writeJSON(w, http.StatusOK, s.cartLocked())
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	engine := promotion.NewEngine(s.promotions, s.Now)
	order := model.Order{
		ID:        model.OrderID(strconv.Itoa(s.nextOrder)),
		Status:    model.StatusPending,
		CreatedAt: s.Now(),
	}
	s.nextOrder++
	for _, l := range s.cart {
		price := engine.DiscountedPrice(l.Product)
		order.Items = append(order.Items, model.OrderItem{ProductID: l.ID, Name: l.Name, Price: price, Quantity: l.Quantity})
		order.Total += price * float64(l.Quantity)
	}
	s.orders = append(s.orders, order)
	s.cart = nil

	writeJSON(w, http.StatusCreated, model.CheckoutResponse{
		Message: "Order created",
		OrderID: order.ID,
		Total:   order.Total,
		Status:  order.Status,
	})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := slices.Clone(s.orders)
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndexLocked(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, s.orders[i])
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var body model.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndexLocked(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if next, ok := s.orders[i].Status.Next(); !ok || next != body.Status {
		writeError(w, http.StatusBadRequest, "Cannot skip status steps")
		return
	}
	s.orders[i].Status = body.Status
	writeJSON(w, http.StatusOK, s.orders[i])
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndexLocked(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	deleted := s.orders[i]
	s.orders = slices.Delete(s.orders, i, i+1)
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) requestUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndexLocked(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	id := s.orders[i].ID.String()
	public := fmt.Sprintf("%s/storage/slips/%s", s.URL, id)
	s.orders[i].SlipURL = &public

	writeJSON(w, http.StatusOK, model.SlipUploadTarget{
		UploadURL: public,
		Order:     s.orders[i],
	})
}

func (s *Server) storeSlip(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-Key") != "" {
		writeError(w, http.StatusBadRequest, "credentials must not be sent to storage")
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slips[r.PathValue("id")] = data
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listPromotions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	promotions := slices.Clone(s.promotions)
	if promotions == nil {
		promotions = []model.Promotion{}
	}
	writeJSON(w, http.StatusOK, promotions)
}

func (s *Server) createPromotion(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Promotion{
		ID:          s.nextPromo,
		ProductID:   req.ProductID,
		Name:        req.Name,
		Description: req.Description,
		Discount:    req.Discount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive,
		CreatedAt:   s.Now(),
	}
	s.nextPromo++
	s.promotions = append(s.promotions, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) deletePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid promotion id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.promotions, func(p model.Promotion) bool { return p.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "Promotion not found")
		return
	}
	s.promotions = slices.Delete(s.promotions, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	simple := r.URL.Query().Get("simple") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	products := []model.Product{}
	for _, p := range s.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if simple {
			p.Images = nil
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b model.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) topProducts(w http.ResponseWriter, r *http.Request) {
	period, err := report.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, report.TopProducts(s.orders, period, limit, s.Now()))
}

func (s *Server) cartLocked() []model.CartLine {
	lines := slices.Clone(s.cart)
	if lines == nil {
		lines = []model.CartLine{}
	}
	return lines
}

func (s *Server) orderIndexLocked(id string) int {
	return slices.IndexFunc(s.orders, func(o model.Order) bool { return o.ID.String() == id })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}
