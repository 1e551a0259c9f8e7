package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewEventMessageCarriesMetaAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	msg := NewEventMessage(ctx, EventMeta{EventID: "evt-1", EventType: "clinic.appointment.booked.v1"}, "appt-1", []byte(`{}`))

	assert.Equal(t, "clinic.appointment.booked.v1", msg.Topic)
	assert.Equal(t, "appt-1", string(msg.Key))
	assert.Equal(t, EventMeta{EventID: "evt-1", EventType: "clinic.appointment.booked.v1"}, ExtractEventMeta(msg))
	assert.NotEmpty(t, HeaderValue(msg.Headers, "traceparent"))

	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), msg))
	assert.Equal(t, traceID, got.TraceID())
}

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	meta := ExtractEventMeta(kafka.Message{Topic: "clinic.appointment.cancelled.v1", Key: []byte("k")})
	assert.Equal(t, "k", meta.EventID)
	assert.Equal(t, "clinic.appointment.cancelled.v1", meta.EventType)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092"))
	assert.Nil(t, SplitBrokers(""))
}
