package suggest

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSuggester is a mock implementation of Suggester.
type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) Suggest(ctx context.Context, text string) ([]string, error) {
	args := m.Called(ctx, text)
	tags, _ := args.Get(0).([]string)
	return tags, args.Error(1)
}
