// Package gin provides adapters for using issue-envelope with the Gin framework.
package gin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	issueenvelope "github.com/blackwell-systems/issue-envelope"
)

// Trace wires issue-envelope trace ID middleware into Gin's middleware chain.
//
// This generates or propagates trace IDs and makes them available via
// issueenvelope.TraceIDFromRequest(c.Request).
//
// Example:
//
//	r := gin.Default()
//	r.Use(Trace())
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := issueenvelope.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// Write dispatches err through d, writes the envelope and aborts the chain.
//
// Example:
//
//	r.GET("/orders/:id", func(c *gin.Context) {
//	    order, err := store.Get(c.Param("id"))
//	    if err != nil {
//	        Write(c, d, err)
//	        return
//	    }
//	    c.JSON(http.StatusOK, order)
//	})
func Write(c *gin.Context, d *issueenvelope.Dispatcher, err error) {
	d.Write(c.Writer, c.Request, err)
	c.Abort()
}

// Errors writes the last error recorded with c.Error once the chain has run,
// unless a response has already been written.
//
// Example:
//
//	r.Use(Errors(d))
//	r.GET("/orders/:id", func(c *gin.Context) {
//	    _ = c.Error(issueenvelope.NotFoundByField("Order", "id", c.Param("id")))
//	})
func Errors(d *issueenvelope.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		d.Write(c.Writer, c.Request, c.Errors.Last().Err)
	}
}

// Install routes unmatched paths and methods through d. It turns on
// HandleMethodNotAllowed so wrong methods answer 405 instead of 404.
func Install(r *gin.Engine, d *issueenvelope.Dispatcher) {
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		Write(c, d, &issueenvelope.HandlerMissingError{Method: c.Request.Method, Path: c.Request.URL.Path})
	})
	r.NoMethod(func(c *gin.Context) {
		var allowed []string
		if allow := c.Writer.Header().Get("Allow"); allow != "" {
			for _, m := range strings.Split(allow, ",") {
				allowed = append(allowed, strings.TrimSpace(m))
			}
		}
		Write(c, d, &issueenvelope.MethodNotSupportedError{Method: c.Request.Method, Allowed: allowed})
	})
}

// Consumes rejects request bodies whose Content-Type is not supported.
func Consumes(d *issueenvelope.Dispatcher, supported ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := issueenvelope.CheckContentType(c.Request, supported...); err != nil {
			Write(c, d, err)
			return
		}
		c.Next()
	}
}

// Produces rejects requests that accept none of the produced media types.
func Produces(d *issueenvelope.Dispatcher, produced ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := issueenvelope.CheckAccept(c.Request, produced...); err != nil {
			Write(c, d, err)
			return
		}
		c.Next()
	}
}

// BindJSON decodes and validates the request body into obj. Validation
// failures come back as *issueenvelope.BindingError and decode failures as
// *issueenvelope.UnreadableBodyError.
func BindJSON(c *gin.Context, obj any) error {
	return issueenvelope.TranslateBindError(c.ShouldBindJSON(obj))
}

// UseJSONFieldNames makes Gin's validator report fields by their json tag.
func UseJSONFieldNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		issueenvelope.UseJSONFieldNames(v)
	}
}
