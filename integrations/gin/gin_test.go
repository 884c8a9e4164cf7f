package gin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	issueenvelope "github.com/blackwell-systems/issue-envelope"
)

func init() {
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()
}

type Order struct {
	Quantity int      `json:"quantity" binding:"gt=0"`
	Price    *float64 `json:"price" binding:"required"`
}

func newEngine() *gin.Engine {
	d := issueenvelope.NewDispatcher(issueenvelope.Config{})

	r := gin.New()
	r.Use(Trace())
	r.Use(Errors(d))
	Install(r, d)

	orders := r.Group("/orders", Consumes(d, "application/json"), Produces(d, "application/json"))
	orders.POST("", func(c *gin.Context) {
		var o Order
		if err := BindJSON(c, &o); err != nil {
			Write(c, d, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	})
	orders.GET("/:id", func(c *gin.Context) {
		_ = c.Error(issueenvelope.NotFoundByField("Order", "id", c.Param("id")))
	})
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) *issueenvelope.Envelope {
	t.Helper()
	var env issueenvelope.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &env
}

func TestTrace(t *testing.T) {
	r := gin.New()
	r.Use(Trace())

	r.GET("/test", func(c *gin.Context) {
		traceID := issueenvelope.TraceIDFromRequest(c.Request)
		if traceID == "" {
			t.Error("expected trace ID to be set")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestTraceWithExistingHeader(t *testing.T) {
	r := gin.New()
	r.Use(Trace())

	existingTraceID := "existing-trace-id-123"

	r.GET("/test", func(c *gin.Context) {
		traceID := issueenvelope.TraceIDFromRequest(c.Request)
		if traceID != existingTraceID {
			t.Errorf("expected trace ID %s, got %s", existingTraceID, traceID)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-Id", existingTraceID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestErrorsMiddleware(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest("GET", "/orders/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	env := decode(t, rec)
	if env.StatusCode != http.StatusNotFound {
		t.Errorf("expected envelope status %d, got %d", http.StatusNotFound, env.StatusCode)
	}
	if len(env.Types) != 1 || env.Types[0] != "RESOURCE_NOT_FOUND" {
		t.Errorf("expected types [RESOURCE_NOT_FOUND], got %v", env.Types)
	}
	want := "No Order can be found by given id: '42'."
	if len(env.Messages) != 1 || env.Messages[0] != want {
		t.Errorf("expected messages [%s], got %v", want, env.Messages)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id to be echoed")
	}
}

func TestBindJSONValidation(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest("POST", "/orders", strings.NewReader(`{"quantity":0}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	env := decode(t, rec)
	if len(env.Types) != 1 || env.Types[0] != "DATA_INTEGRITY_CONSTRAINT_VIOLATED" {
		t.Errorf("expected types [DATA_INTEGRITY_CONSTRAINT_VIOLATED], got %v", env.Types)
	}
	want := []string{"order.quantity: must be positive", "order.price: must not be null"}
	if len(env.Messages) != len(want) {
		t.Fatalf("expected messages %v, got %v", want, env.Messages)
	}
	for i := range want {
		if env.Messages[i] != want[i] {
			t.Errorf("expected message %q, got %q", want[i], env.Messages[i])
		}
	}
}

func TestBindJSONMalformed(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest("POST", "/orders", strings.NewReader(`{"quantity":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	env := decode(t, rec)
	if len(env.Types) != 1 || env.Types[0] != "NOT_READABLE_REQUEST_BODY" {
		t.Errorf("expected types [NOT_READABLE_REQUEST_BODY], got %v", env.Types)
	}
	if len(env.Messages) != 1 || env.Messages[0] == "" {
		t.Errorf("expected the parse error as message, got %v", env.Messages)
	}
}

func TestMediaTypes(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		accept      string
		status      int
		typ         string
	}{
		{"unsupported content type", "text/plain", "", http.StatusUnsupportedMediaType, "MEDIA_TYPE_NOT_SUPPORTED"},
		{"unacceptable", "application/json", "text/html", http.StatusNotAcceptable, "MEDIA_TYPE_NOT_ACCEPTABLE"},
	}

	r := newEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/orders", strings.NewReader(`{"quantity":1,"price":2}`))
			req.Header.Set("Content-Type", tt.contentType)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			env := decode(t, rec)
			if len(env.Types) != 1 || env.Types[0] != tt.typ {
				t.Errorf("expected types [%s], got %v", tt.typ, env.Types)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	r := newEngine()

	t.Run("no route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", "/customers", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
		env := decode(t, rec)
		if env.Types[0] != "REQUEST_HANDLER_MISSING" {
			t.Errorf("expected REQUEST_HANDLER_MISSING, got %v", env.Types)
		}
		if env.Messages[0] != "No handler found for GET /customers" {
			t.Errorf("unexpected message %q", env.Messages[0])
		}
	})

	t.Run("no method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("DELETE", "/orders/42", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
		env := decode(t, rec)
		if env.Types[0] != "REQUEST_METHOD_NOT_SUPPORTED" {
			t.Errorf("expected REQUEST_METHOD_NOT_SUPPORTED, got %v", env.Types)
		}
	})
}
