package provider

import "context"

// MockOrdersAPI is an in-memory OrdersAPI for tests and local development.
type MockOrdersAPI struct {
	Orders map[string]*OrderMetadata
	Err    error
	Calls  int
}

func NewMockOrdersAPI() *MockOrdersAPI {
	return &MockOrdersAPI{Orders: make(map[string]*OrderMetadata)}
}

func (m *MockOrdersAPI) RetrieveOrderMetadata(_ context.Context, providerOrderID string) (*OrderMetadata, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if md, ok := m.Orders[providerOrderID]; ok {
		return md, nil
	}
	return nil, ErrOrderLookup
}
