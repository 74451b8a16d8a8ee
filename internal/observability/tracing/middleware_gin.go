package tracing

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/rentalops/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// collectionEntities names the entity that ":id" refers to under each /api collection.
// Nested routes keep the parent, so /api/parks/:id/inventories tags a park.
var collectionEntities = map[string]string{
	"degressive-rates": "degressive_rate",
	"documents":        "document",
	"estimates":        "document",
	"events":           "event",
	"inventories":      "inventory",
	"materials":        "material",
	"parks":            "park",
	"settings":         "setting",
	"taxes":            "tax",
}

// EntityAttributes turns the path parameters of a matched /api route into
// entity attributes (event.id, event_material.id, inventory.id, ...).
func EntityAttributes(route string, params gin.Params) []attribute.KeyValue {
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) < 2 || segments[0] != "api" {
		return nil
	}
	entity, ok := collectionEntities[segments[1]]
	if !ok {
		return nil
	}

	attrs := []attribute.KeyValue{attribute.String("app.entity", entity)}
	for _, p := range params {
		switch p.Key {
		case "id":
			attrs = append(attrs, attribute.String(entity+".id", p.Value))
		case "line":
			attrs = append(attrs, attribute.String("event_material.id", p.Value))
		case "key":
			attrs = append(attrs, attribute.String("setting.key", p.Value))
		}
	}
	return attrs
}

// GinMiddleware opens a server span per request and names it after the matched route.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("rentalops/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		method := strings.ToUpper(c.Request.Method)

		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		ctx = withRequestBaggage(ctx, span)

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		span.SetName("HTTP " + method + " " + route)
		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		attrs = append(attrs, EntityAttributes(route, c.Params)...)
		span.SetAttributes(SafeAttributes(attrs...)...)

		if status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
		span.End()
	}
}

func withRequestBaggage(ctx context.Context, span trace.Span) context.Context {
	requestID := obscontext.RequestIDFromContext(ctx)
	if requestID == "" {
		return ctx
	}
	span.SetAttributes(attribute.String("request_id", requestID))

	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.New(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
