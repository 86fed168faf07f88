package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"novasalud/m/domain"
	"novasalud/m/internal/cart"
	"novasalud/m/internal/store"
)

type ctxKey string

const ctxUserID ctxKey = "userID"

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db        *sqlx.DB
	secret    string
	products  *store.ProductStore
	customers *store.CustomerStore
	sales     *store.SaleStore
}

// New constructs a Handler.
func New(db *sqlx.DB, secret string) *Handler {
	return &Handler{
		db:        db,
		secret:    secret,
		products:  store.NewProductStore(db),
		customers: store.NewCustomerStore(db),
		sales:     store.NewSaleStore(db),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // Change "*" to a list of allowed domains (e.g., ["http://localhost:3000"])
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Get("/verify-token", h.verifyToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)

			pr.Route("/productos", func(r chi.Router) {
				r.Get("/", h.listProductos)
				r.Post("/", h.createProducto)
				r.Put("/{id}", h.updateProducto)
				r.Delete("/{id}", h.deleteProducto)
			})

			pr.Route("/clientes", func(r chi.Router) {
				r.Get("/", h.listClientes)
				r.Post("/", h.createCliente)
				r.Put("/{id}", h.updateCliente)
				r.Delete("/{id}", h.deleteCliente)
			})

			pr.Route("/ventas", func(r chi.Router) {
				r.Get("/", h.listVentas)
				r.Post("/", h.createVenta)
				r.Put("/{id}", h.updateVenta)
				r.Delete("/{id}", h.deleteVenta)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID          int64  `json:"id"`
	Correo          string `json:"correo"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(user domain.User) (string, error) {
	claims := authClaims{
		UserID:          user.ID,
		Correo:          user.Correo,
		Nombres:         user.Nombres,
		ApellidoPaterno: user.ApellidoPaterno,
		ApellidoMaterno: user.ApellidoMaterno,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) parseToken(r *http.Request) (*authClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, errors.New("missing bearer token")
	}
	tokenString := strings.TrimSpace(header[len("Bearer "):])
	token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*authClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.parseToken(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Auth handlers

type registerRequest struct {
	Correo          string `json:"correo"`
	Contrasena      string `json:"contrasena"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Correo == "" || req.Contrasena == "" {
		respondError(w, http.StatusBadRequest, "correo and contrasena are required")
		return
	}

	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM usuarios WHERE correo = ?)`, strings.ToLower(req.Correo)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to check registration")
		return
	}
	if exists {
		respondError(w, http.StatusBadRequest, "correo already registered")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Contrasena), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	res, err := h.db.Exec(`INSERT INTO usuarios (correo, contrasena, nombres, apellido_paterno, apellido_materno) VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(req.Correo), hashed, req.Nombres, req.ApellidoPaterno, req.ApellidoMaterno)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to register user")
		return
	}
	userID, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to register user")
		return
	}

	user := domain.User{
		ID:              userID,
		Correo:          strings.ToLower(req.Correo),
		Nombres:         req.Nombres,
		ApellidoPaterno: req.ApellidoPaterno,
		ApellidoMaterno: req.ApellidoMaterno,
	}
	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user domain.User
	err := h.db.Get(&user, `SELECT id, correo, contrasena, nombres, apellido_paterno, apellido_materno FROM usuarios WHERE correo = ?`, strings.ToLower(req.Correo))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Contrasena), []byte(req.Contrasena)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Contrasena = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	claims, err := h.parseToken(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "token valid",
		"user": domain.User{
			ID:              claims.UserID,
			Correo:          claims.Correo,
			Nombres:         claims.Nombres,
			ApellidoPaterno: claims.ApellidoPaterno,
			ApellidoMaterno: claims.ApellidoMaterno,
		},
	})
}

// Product handlers

type productoRequest struct {
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Categoria   string          `json:"categoria"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int64           `json:"stock"`
	Proveedor   string          `json:"proveedor"`
	Vencimiento string          `json:"vencimiento"`
}

func (req productoRequest) validate() error {
	if strings.TrimSpace(req.Nombre) == "" {
		return errors.New("nombre is required")
	}
	if req.Precio.IsNegative() {
		return errors.New("precio must not be negative")
	}
	if req.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}

func (req productoRequest) toDomain() domain.Product {
	return domain.Product{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Categoria:   req.Categoria,
		Precio:      req.Precio,
		Stock:       req.Stock,
		Proveedor:   req.Proveedor,
		Vencimiento: req.Vencimiento,
	}
}

func (h *Handler) listProductos(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) createProducto(w http.ResponseWriter, r *http.Request) {
	var req productoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.products.Create(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create product")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateProducto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req productoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.products.Update(r.Context(), id, req.toDomain())
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update product")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteProducto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	err = h.products.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Customer handlers

type clienteRequest struct {
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	DNI       string `json:"dni"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
}

func (req clienteRequest) toDomain() domain.Customer {
	return domain.Customer{
		Nombre:    req.Nombre,
		Apellido:  req.Apellido,
		DNI:       req.DNI,
		Telefono:  req.Telefono,
		Direccion: req.Direccion,
	}
}

func (h *Handler) listClientes(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	var (
		customers []domain.Customer
		err       error
	)
	if query == "" {
		customers, err = h.customers.List(r.Context())
	} else {
		customers, err = h.customers.SearchByName(r.Context(), query)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) createCliente(w http.ResponseWriter, r *http.Request) {
	var req clienteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Nombre) == "" {
		respondError(w, http.StatusBadRequest, "nombre is required")
		return
	}
	created, err := h.customers.Create(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create customer")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateCliente(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid customer id")
		return
	}
	var req clienteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Nombre) == "" {
		respondError(w, http.StatusBadRequest, "nombre is required")
		return
	}
	updated, err := h.customers.Update(r.Context(), id, req.toDomain())
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update customer")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteCliente(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid customer id")
		return
	}
	err = h.customers.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete customer")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Sale handlers

type ventaLineRequest struct {
	ID       int64 `json:"id"`
	Cantidad int64 `json:"cantidad"`
}

type ventaRequest struct {
	ClienteID int64              `json:"cliente_id"`
	Productos []ventaLineRequest `json:"productos"`
}

func (h *Handler) listVentas(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list sales")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

// createVenta replays the posted lines through a composer built from the
// current catalog, so every cart rule (duplicates, stock, positive
// quantities) applies server-side, then persists the finalized request. The
// customer travels by id end to end; name resolution never happens here.
func (h *Handler) createVenta(w http.ResponseWriter, r *http.Request) {
	var req ventaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	catalog, err := h.products.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load catalog")
		return
	}

	composer := cart.NewComposer(catalog)
	composer.SelectCustomer(req.ClienteID)
	for _, line := range req.Productos {
		if err := composer.AddLine(line.ID, line.Cantidad); err != nil {
			respondError(w, cartErrorStatus(err), err.Error())
			return
		}
	}
	saleReq, err := composer.Submit()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sale, err := h.sales.Create(r.Context(), saleReq)
	switch {
	case errors.Is(err, store.ErrCustomerNotFound):
		respondError(w, http.StatusBadRequest, "customer not found")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusBadRequest, "product no longer in catalog")
	case errors.Is(err, store.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient stock")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "unable to create sale")
	default:
		respondJSON(w, http.StatusCreated, sale)
	}
}

func cartErrorStatus(err error) int {
	if errors.Is(err, cart.ErrInsufficientStock) {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (h *Handler) updateVenta(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	var patch store.SalePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.Total != nil && patch.Total.IsNegative() {
		respondError(w, http.StatusBadRequest, "total must not be negative")
		return
	}
	updated, err := h.sales.Update(r.Context(), id, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "sale not found")
	case errors.Is(err, store.ErrCustomerNotFound):
		respondError(w, http.StatusBadRequest, "customer not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "unable to update sale")
	default:
		respondJSON(w, http.StatusOK, updated)
	}
}

func (h *Handler) deleteVenta(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	err = h.sales.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "sale not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete sale")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Helpers

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
