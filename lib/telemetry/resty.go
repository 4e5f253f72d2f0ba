package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

type restyCtxKeyType int

var restyCtxKey restyCtxKeyType

type restyCtx struct {
	id        uint64
	startTime time.Time
}

type instrumentResty struct {
	tracer    trace.Tracer
	requests  metric.Int64Counter
	idcounter *uint64
}

// InstrumentResty traces every request made by the client, logs it at debug
// level and counts responses by status code.
func InstrumentResty(client *resty.Client, name string) {
	requests, err := Meter(name).Int64Counter(
		"http.requests",
		metric.WithDescription("responses received, by status code"),
	)
	if err != nil {
		slog.Warn("failed to create request counter", "name", name, "err", err)
	}

	var idcounter uint64
	i := instrumentResty{
		tracer:    Tracer(name),
		requests:  requests,
		idcounter: &idcounter,
	}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))

	id := atomic.AddUint64(i.idcounter, 1)
	ctx = context.WithValue(ctx, restyCtxKey, restyCtx{
		id:        id,
		startTime: time.Now(),
	})
	slog.DebugContext(ctx, "start request", "id", id, "method", req.Method, "url", req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	// request attributes are set here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}

	if i.requests != nil {
		i.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status", strconv.Itoa(res.StatusCode())),
		))
	}

	rctx, ok := ctx.Value(restyCtxKey).(restyCtx)
	if !ok {
		return nil
	}
	slog.DebugContext(
		ctx, "request finished",
		"id", rctx.id,
		"status", res.StatusCode(),
		"duration", time.Since(rctx.startTime).String(),
	)
	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}

	slog.WarnContext(
		ctx, "request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
	)
}
