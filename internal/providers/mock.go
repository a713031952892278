package providers

import (
	"context"
)

// MockClient is a test double for a federated identity provider.
type MockClient struct {
	NameValue        string
	AuthCodeURLFunc  func(state string) string
	ExchangeFunc     func(ctx context.Context, code string) (string, error)
	FetchProfileFunc func(ctx context.Context, accessToken string) (*Profile, error)
}

func (m *MockClient) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

func (m *MockClient) AuthCodeURL(state string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state)
	}
	return "https://mock.example.com/authorize?state=" + state
}

func (m *MockClient) Exchange(ctx context.Context, code string) (string, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	return "mock-access-token", nil
}

func (m *MockClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	if m.FetchProfileFunc != nil {
		return m.FetchProfileFunc(ctx, accessToken)
	}
	return &Profile{Provider: m.Name(), ProviderID: "mock-id"}, nil
}
