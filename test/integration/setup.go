package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"booksy/internal/config"
	"booksy/internal/database"
	"booksy/internal/model"
	"booksy/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the session schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:  4,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := session.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all session rows.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "DELETE FROM session_entries"); err != nil {
		t.Logf("failed to clean session_entries: %v", err)
	}
}

// Backend is an in-memory Booksy REST backend requiring a bearer token on
// cart and order routes.
type Backend struct {
	Server *httptest.Server

	mu     sync.Mutex
	cart   []model.CartItem
	orders []model.OrderRequest
	nextID int
}

// Token is the token issued by the fake backend.
const Token = "integration-token"

// SeedBooks is the catalogue served by the fake backend.
var SeedBooks = []model.Book{
	{ID: "B001", Title: "Cien años de soledad", Author: "Gabriel García Márquez", Price: 10990, Category: "Ficción"},
	{ID: "B002", Title: "Veinte poemas de amor", Author: "Pablo Neruda", Price: 10990, Category: "Poesía"},
	{ID: "B003", Title: "Don Quijote de la Mancha", Author: "Miguel de Cervantes", Price: 15990, Category: "Clásicos"},
}

// SetupBackend starts the fake backend under /api.
func SetupBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var req model.LoginRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "password123" {
				writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "UNAUTHORIZED", Message: "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, model.AuthResponse{AuthToken: Token, UserID: "U001"})
		})
		r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, SeedBooks)
		})
		r.Get("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
			for _, book := range SeedBooks {
				if book.ID == chi.URLParam(r, "id") {
					writeJSON(w, http.StatusOK, book)
					return
				}
			}
			writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "NOT_FOUND", Message: "book not found"})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireToken)

			r.Get("/auth/me/{userId}", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, model.User{ID: "U001", Email: "ana@example.com", Name: "Ana"})
			})
			r.Post("/cart", b.addToCart)
			r.Get("/cart/user/{userId}", b.cartItems)
			r.Get("/cart/total/{userId}", b.cartTotal)
			r.Delete("/cart/{id}", b.deleteItem)
			r.Delete("/cart/clear/{userId}", b.clearCart)
			r.Post("/orders", b.createOrder)
		})
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)

	return b
}

// Orders returns the orders received so far.
func (b *Backend) Orders() []model.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.OrderRequest(nil), b.orders...)
}

func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "UNAUTHORIZED", Message: "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) addToCart(w http.ResponseWriter, r *http.Request) {
	var item model.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "BAD_REQUEST", Message: err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := "C00" + string(rune('0'+b.nextID))
	item.ID = &id
	b.cart = append(b.cart, item)
	writeJSON(w, http.StatusCreated, item)
}

func (b *Backend) cartItems(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.cart)
}

func (b *Backend) cartTotal(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var subtotal float64
	for _, item := range b.cart {
		subtotal += item.PricePerUnit * float64(item.Quantity)
	}
	commission := subtotal / 10
	writeJSON(w, http.StatusOK, model.CartTotal{Subtotal: subtotal, Commission: commission, Total: subtotal + commission})
}

func (b *Backend) deleteItem(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i, item := range b.cart {
		if item.ID != nil && *item.ID == id {
			b.cart = append(b.cart[:i], b.cart[i+1:]...)
			writeJSON(w, http.StatusOK, "deleted")
			return
		}
	}
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "NOT_FOUND", Message: "item not found"})
}

func (b *Backend) clearCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cart = nil
	writeJSON(w, http.StatusOK, "cleared")
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "BAD_REQUEST", Message: err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append(b.orders, req)

	id := "O001"
	writeJSON(w, http.StatusCreated, model.OrderResponse{
		Success: true,
		Message: "order created",
		Order: &model.Order{
			ID:           &id,
			UserID:       req.UserID,
			Items:        req.Items,
			Total:        req.Total,
			ShippingInfo: req.ShippingInfo,
			Status:       model.OrderStatusCompleted,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
