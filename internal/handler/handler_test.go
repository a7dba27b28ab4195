package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tobiasmaugus/vendas-api/internal/auth"
	"github.com/tobiasmaugus/vendas-api/internal/config"
	"github.com/tobiasmaugus/vendas-api/internal/database"
	"github.com/tobiasmaugus/vendas-api/internal/jwtutil"
	"github.com/tobiasmaugus/vendas-api/internal/middleware"
	"github.com/tobiasmaugus/vendas-api/internal/model"
	"github.com/tobiasmaugus/vendas-api/internal/service"
)

const testDeletePassword = "super-secret"

// testApp is a fully wired application backed by an in-memory database and
// a fake tokeninfo endpoint.
type testApp struct {
	echo   *echo.Echo
	db     *gorm.DB
	tokens *jwtutil.JWTUtil
	google map[string]auth.GoogleClaims
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	google := map[string]auth.GoogleClaims{}
	tokenInfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := google[r.URL.Query().Get("id_token")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(claims)
	}))
	t.Cleanup(tokenInfo.Close)

	verifier := auth.NewGoogleVerifier(&config.GoogleConfig{ClientID: "client-id", TokenInfoURL: tokenInfo.URL})
	tokens := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 168})

	authSvc := service.NewAuthService(db, verifier, tokens)
	handlers := &Handlers{
		Auth:      NewAuthHandler(authSvc),
		Customers: NewCustomerHandler(service.NewCustomerService(db)),
		Products:  NewProductHandler(service.NewProductService(db)),
		Sales:     NewSaleHandler(service.NewSaleService(db), testDeletePassword),
		Health:    NewHealthHandler(db),
	}

	e := echo.New()
	Register(e, handlers, middleware.Auth(tokens, db))

	return &testApp{echo: e, db: db, tokens: tokens, google: google}
}

// loginAs provisions a user row and returns a valid session credential
func (a *testApp) loginAs(t *testing.T, googleID, email string) (string, *model.User) {
	t.Helper()
	user := &model.User{GoogleID: googleID, Name: "Test User", Email: email}
	require.NoError(t, a.db.Create(user).Error)
	token, err := a.tokens.GenerateToken(googleID, user.Name, email, user.ID)
	require.NoError(t, err)
	return token, user
}

// request performs an HTTP round trip against the wired routes
func (a *testApp) request(t *testing.T, method, path, sessionToken string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sessionToken != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+sessionToken)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	// Autocomplete endpoints answer with a bare array; everything else is an
	// object
	var payload map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestProtectedRoutesRequireCredential(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.request(t, http.MethodGet, "/api/clientes", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = app.request(t, http.MethodGet, "/api/produtos", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// A well-formed credential signed with another key is also rejected
	other := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "other-key", ExpirationHours: 168})
	forged, err := other.GenerateToken("sub-1", "Mallory", "mallory@example.com", 1)
	require.NoError(t, err)
	rec, _ = app.request(t, http.MethodGet, "/api/vendas", forged, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCredentialForDeletedAccountIsRejected(t *testing.T) {
	app := newTestApp(t)
	token, user := app.loginAs(t, "sub-1", "maria@example.com")

	rec, _ := app.request(t, http.MethodGet, "/api/clientes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, app.db.Delete(&model.User{}, user.ID).Error)

	rec, _ = app.request(t, http.MethodGet, "/api/clientes", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleLoginFlow(t *testing.T) {
	app := newTestApp(t)
	app.google["g1"] = auth.GoogleClaims{
		Sub:   "sub-1",
		Aud:   "client-id",
		Name:  "Maria Silva",
		Email: "maria@example.com",
		Exp:   strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
	}

	rec, body := app.request(t, http.MethodPost, "/api/auth/google", "", echo.Map{"token": "g1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	require.Equal(t, "sub-1", user["googleId"])
	require.Equal(t, "Maria Silva", user["name"])
	require.Equal(t, "maria@example.com", user["email"])

	// The issued credential opens the protected routes
	session := body["token"].(string)
	rec, _ = app.request(t, http.MethodGet, "/api/clientes", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// And verify confirms it
	rec, body = app.request(t, http.MethodPost, "/api/auth/verify", "", echo.Map{"token": session})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["valid"])
	verified := body["user"].(map[string]interface{})
	require.Equal(t, "Maria Silva", verified["nome"])
}

func TestGoogleLoginRejectsBadAssertions(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.request(t, http.MethodPost, "/api/auth/google", "", echo.Map{"token": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = app.request(t, http.MethodPost, "/api/auth/google", "", echo.Map{"token": "unknown"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.request(t, http.MethodPost, "/api/auth/verify", "", echo.Map{"token": "garbage"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCustomerCRUDOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.loginAs(t, "sub-1", "maria@example.com")

	rec, body := app.request(t, http.MethodPost, "/api/clientes", token,
		echo.Map{"nome": "Carlos", "telefone": "11 98888-7777"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int(body["id"].(float64))

	rec, body = app.request(t, http.MethodGet, "/api/clientes/"+strconv.Itoa(id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Carlos", body["nome"])

	rec, _ = app.request(t, http.MethodPut, "/api/clientes/"+strconv.Itoa(id), token,
		echo.Map{"nome": "Carlos Souza", "telefone": "11 98888-7777"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.request(t, http.MethodGet, "/api/clientes/buscar/Souza", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []model.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	require.Equal(t, "Carlos Souza", matches[0].Name)

	rec, _ = app.request(t, http.MethodGet, "/api/clientes/999", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = app.request(t, http.MethodPost, "/api/clientes", token, echo.Map{"nome": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = app.request(t, http.MethodDelete, "/api/clientes/"+strconv.Itoa(id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProductStatsEndpoint(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.loginAs(t, "sub-1", "maria@example.com")

	rec, _ := app.request(t, http.MethodPost, "/api/produtos", token,
		echo.Map{"nome": "Caneta", "preco": 2.5, "estoque": 100})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = app.request(t, http.MethodPost, "/api/produtos", token,
		echo.Map{"nome": "Caderno", "preco": 15.0, "estoque": 3})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := app.request(t, http.MethodGet, "/api/produtos/estatisticas/geral", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, body["total_produtos"])
	require.EqualValues(t, 103, body["total_estoque"])
	require.EqualValues(t, 1, body["produtos_baixo_estoque"])
	require.InDelta(t, 2.5*100+15.0*3, body["valor_total_estoque"].(float64), 0.001)
}

func TestProductStockPatch(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.loginAs(t, "sub-1", "maria@example.com")

	rec, body := app.request(t, http.MethodPost, "/api/produtos", token,
		echo.Map{"nome": "Caneta", "preco": 2.5, "estoque": 5})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := strconv.Itoa(int(body["id"].(float64)))

	rec, _ = app.request(t, http.MethodPatch, "/api/produtos/"+id+"/estoque", token,
		echo.Map{"quantidade": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = app.request(t, http.MethodGet, "/api/produtos/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 15, body["estoque"])

	// Going below zero is rejected and the stock is unchanged
	rec, _ = app.request(t, http.MethodPatch, "/api/produtos/"+id+"/estoque", token,
		echo.Map{"quantidade": -20})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = app.request(t, http.MethodGet, "/api/produtos/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 15, body["estoque"])
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.loginAs(t, "sub-1", "maria@example.com")

	rec, body := app.request(t, http.MethodPost, "/api/clientes", token,
		echo.Map{"nome": "Carlos", "telefone": "11 98888-7777"})
	require.Equal(t, http.StatusCreated, rec.Code)
	customerID := int(body["id"].(float64))

	rec, body = app.request(t, http.MethodPost, "/api/produtos", token,
		echo.Map{"nome": "Caneta", "preco": 10.0, "estoque": 5})
	require.Equal(t, http.StatusCreated, rec.Code)
	productID := int(body["id"].(float64))

	rec, body = app.request(t, http.MethodPost, "/api/vendas", token, echo.Map{
		"cliente_id": customerID,
		"itens":      []echo.Map{{"produto_id": productID, "quantidade": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	saleID := strconv.Itoa(int(body["id"].(float64)))

	// An oversell is a 400 with the reason in the body
	rec, body = app.request(t, http.MethodPost, "/api/vendas", token, echo.Map{
		"cliente_id": customerID,
		"itens":      []echo.Map{{"produto_id": productID, "quantidade": 3}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, body["error"])

	// Listing flattens the customer name into each row
	rec, body = app.request(t, http.MethodGet, "/api/vendas", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["vendas"].([]interface{})
	require.Len(t, rows, 1)
	require.Equal(t, "Carlos", rows[0].(map[string]interface{})["cliente_nome"])

	// A wrong delete password is rejected before touching the sale
	rec, _ = app.request(t, http.MethodDelete, "/api/vendas/"+saleID, token,
		echo.Map{"deletePassword": "wrong", "produtosDevolver": []int{productID}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = app.request(t, http.MethodDelete, "/api/vendas/"+saleID, token,
		echo.Map{"deletePassword": testDeletePassword, "produtosDevolver": []int{productID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = app.request(t, http.MethodGet, "/api/produtos/"+strconv.Itoa(productID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 5, body["estoque"])
}

func TestSalePeriodEndpoint(t *testing.T) {
	app := newTestApp(t)
	token, user := app.loginAs(t, "sub-1", "maria@example.com")

	customer := &model.Customer{Name: "Carlos", Phone: "11 98888-7777"}
	require.NoError(t, app.db.Create(customer).Error)
	sale := &model.Sale{CustomerID: customer.ID, UserID: user.ID, Total: 10}
	require.NoError(t, app.db.Create(sale).Error)

	today := time.Now().Format("2006-01-02")
	rec, body := app.request(t, http.MethodGet,
		"/api/vendas/periodo?dataInicio="+today+"&dataFim="+today, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["total"])

	rec, _ = app.request(t, http.MethodGet,
		"/api/vendas/periodo?dataInicio=bogus&dataFim="+today, token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec, body := app.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}
