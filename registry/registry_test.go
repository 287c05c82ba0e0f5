package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type demoHandlers struct {
	_ Marker `rr:"workflow=SimpleWorkflow"`
	_ Marker `rr:"activity=ChargeCard"`
}

func (demoHandlers) SimpleWorkflow(ctx context.Context, in string) (string, error) {
	return strings.ToUpper(in), nil
}

func (demoHandlers) ChargeCard(ctx context.Context, in int) (bool, error) {
	return in > 0, nil
}

// ReadonlyActivity and Readonly carry no rr tag. Readonly does not match the
// naming convention's suffix check and sits in the reserved-name list;
// TestScanAttributeTags checks that it is not registered.
func (demoHandlers) ReadonlyActivity(ctx context.Context, in int) (int, error) {
	return in, nil
}

func (demoHandlers) Readonly(ctx context.Context, in int) (int, error) {
	return in, nil
}

type conventionOnlyHandlers struct{}

func (conventionOnlyHandlers) BillingWorkflow(ctx context.Context, in string) (string, error) {
	return in, nil
}

func (conventionOnlyHandlers) NotAHandler() {}

func TestScanAttributeTags(t *testing.T) {
	handlers, err := Scan(&demoHandlers{})
	require.NoError(t, err)

	byName := map[string]Handler{}
	for _, h := range handlers {
		byName[h.Name] = h
	}

	require.Contains(t, byName, "SimpleWorkflow")
	assert.Equal(t, KindWorkflow, byName["SimpleWorkflow"].Kind)

	require.Contains(t, byName, "ChargeCard")
	assert.Equal(t, KindActivity, byName["ChargeCard"].Kind)

	assert.NotContains(t, byName, "Readonly")
}

func TestScanInvokeRoundTrip(t *testing.T) {
	handlers, err := Scan(&demoHandlers{})
	require.NoError(t, err)

	var wf Handler
	for _, h := range handlers {
		if h.Name == "SimpleWorkflow" {
			wf = h
		}
	}
	require.Equal(t, "SimpleWorkflow", wf.Name)

	out, err := wf.Invoke(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", out)
}

func TestScanNameConventionFallback(t *testing.T) {
	handlers, err := Scan(&conventionOnlyHandlers{}, WithNameConvention(true))
	require.NoError(t, err)
	require.Len(t, handlers, 1)
	assert.Equal(t, "BillingWorkflow", handlers[0].Name)
	assert.Equal(t, KindWorkflow, handlers[0].Kind)
}

func TestScanNameConventionDisabledByDefault(t *testing.T) {
	handlers, err := Scan(&conventionOnlyHandlers{})
	require.NoError(t, err)
	assert.Empty(t, handlers)
}
