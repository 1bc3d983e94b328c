package testutil

import (
	"context"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
)

// MockClient is a mock implementation of the provider.Client interface for
// testing
type MockClient struct {
	NameFunc  func() string
	KindsFunc func() []marketdata.Kind
	FetchFunc func(ctx context.Context, req provider.Request) (any, error)
}

// Name implements the Client interface
func (m *MockClient) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock"
}

// Kinds implements the Client interface
func (m *MockClient) Kinds() []marketdata.Kind {
	if m.KindsFunc != nil {
		return m.KindsFunc()
	}
	return marketdata.Kinds()
}

// Fetch implements the Client interface
func (m *MockClient) Fetch(ctx context.Context, req provider.Request) (any, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, req)
	}
	return nil, nil
}

// NewMockClient creates a simple mock client with a fixed name, kinds and
// canned fetch result
func NewMockClient(name string, kinds []marketdata.Kind, payload any, err error) *MockClient {
	return &MockClient{
		NameFunc:  func() string { return name },
		KindsFunc: func() []marketdata.Kind { return kinds },
		FetchFunc: func(ctx context.Context, req provider.Request) (any, error) {
			return payload, err
		},
	}
}
